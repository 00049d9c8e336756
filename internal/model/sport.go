package model

import "strconv"

// Sport is an entry in the Swarm sport catalog.
type Sport struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FootballID is the Swarm sport id for football.
const FootballID = 1

// Sports lists the sports the service knows by name.
var Sports = []Sport{
	{ID: 1, Name: "Football"},
	{ID: 2, Name: "Ice_Hockey"},
	{ID: 3, Name: "Basketball"},
	{ID: 4, Name: "Tennis"},
	{ID: 5, Name: "Volleyball"},
	{ID: 6, Name: "American_Football"},
	{ID: 8, Name: "Aussie_Rules"},
	{ID: 10, Name: "Bandy"},
	{ID: 11, Name: "Baseball"},
	{ID: 18, Name: "Chess"},
	{ID: 19, Name: "Cricket"},
	{ID: 20, Name: "Curling"},
	{ID: 21, Name: "Cycling"},
	{ID: 22, Name: "Darts"},
	{ID: 24, Name: "Floorball"},
	{ID: 25, Name: "Formula_1"},
	{ID: 26, Name: "Futsal"},
	{ID: 27, Name: "Golf"},
	{ID: 29, Name: "Handball"},
	{ID: 36, Name: "Rugby_League"},
	{ID: 37, Name: "Rugby_Union"},
	{ID: 39, Name: "Snooker"},
	{ID: 41, Name: "Table_Tennis"},
	{ID: 42, Name: "Water_Polo"},
	{ID: 75, Name: "Counter_Strike_2"},
	{ID: 76, Name: "Dota_2"},
	{ID: 77, Name: "League_of_legends"},
	{ID: 110, Name: "Lacrosse"},
	{ID: 190, Name: "3x3_Basketball"},
}

// SportName returns the catalog name for id, or "Sport <id>" if unknown.
func SportName(id int) string {
	for _, s := range Sports {
		if s.ID == id {
			return s.Name
		}
	}
	return "Sport " + strconv.Itoa(id)
}
