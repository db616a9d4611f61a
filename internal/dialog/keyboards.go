package dialog

import (
	"strconv"

	"github.com/rraild/vuzbot/internal/bus"
	"github.com/rraild/vuzbot/internal/match"
	"github.com/rraild/vuzbot/internal/profile"
)

func mainMenu() *bus.Menu {
	return &bus.Menu{
		Rows: [][]bus.Button{
			{{Label: BtnStartSearch}},
			{{Label: BtnEnterData}},
			{{Label: BtnHelp}, {Label: BtnAbout}},
			{{Label: BtnViewData}},
		},
		Placeholder: "Выберите пункт меню...",
	}
}

func clearConfirmMenu() *bus.Menu {
	return &bus.Menu{
		Rows: [][]bus.Button{
			{{Label: BtnConfirmDelete}},
			{{Label: BtnDeclineDelete}},
			{{Label: BtnViewData}},
		},
		OneTime: true,
	}
}

func changeDataMenu() *bus.Menu {
	return &bus.Menu{
		Rows: [][]bus.Button{
			{{Label: BtnCity}, {Label: BtnScores}},
			{{Label: BtnSpecialization}, {Label: BtnReturn}},
		},
		Placeholder: "Что хотите изменить?",
	}
}

func cityMenu() *bus.Menu {
	return &bus.Menu{
		Rows: [][]bus.Button{
			{{Label: "Москва"}},
			{{Label: "Санкт-Петербург"}},
		},
		Placeholder: "Выберите город...",
	}
}

func budgetMenu() *bus.Menu {
	return &bus.Menu{
		Rows: [][]bus.Button{
			{{Label: BtnBudget}, {Label: BtnPaid}},
		},
	}
}

// subjectsMenu lays out the 16 subjects two per row, with a save button on
// its own final row.
func subjectsMenu() *bus.Menu {
	var buttons []bus.Button
	for _, sub := range profile.Subjects() {
		buttons = append(buttons, bus.Button{
			Label: sub.Label(),
			Data:  cbSubjectPrefix + string(sub),
		})
	}
	rows := pairRows(buttons)
	rows = append(rows, []bus.Button{{Label: BtnSave, Data: cbSave}})
	return &bus.Menu{Rows: rows, Inline: true}
}

func specializationsMenu() *bus.Menu {
	var buttons []bus.Button
	for _, spec := range profile.Specializations() {
		buttons = append(buttons, bus.Button{
			Label: spec.Label(),
			Data:  string(spec),
		})
	}
	return &bus.Menu{Rows: pairRows(buttons), Inline: true}
}

func viewDataMenu() *bus.Menu {
	return &bus.Menu{
		Rows:   [][]bus.Button{{{Label: BtnClearData, Data: cbClearData}}},
		Inline: true,
	}
}

// resultsMenu numbers the page's records 1..n, one button per row, plus a
// navigation row when more pages exist in either direction.
func resultsMenu(page match.Page[Result]) *bus.Menu {
	var rows [][]bus.Button
	for i, rec := range page.Items {
		rows = append(rows, []bus.Button{{
			Label: strconv.Itoa(i + 1),
			Data:  cbDetailPrefix + strconv.FormatInt(rec.ID, 10),
		}})
	}

	var nav []bus.Button
	if page.HasPrev {
		nav = append(nav, bus.Button{Label: BtnPrevPage, Data: cbPagePrefix + strconv.Itoa(page.Index-1)})
	}
	if page.HasNext {
		nav = append(nav, bus.Button{Label: BtnNextPage, Data: cbPagePrefix + strconv.Itoa(page.Index+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return &bus.Menu{Rows: rows, Inline: true}
}

func pairRows(buttons []bus.Button) [][]bus.Button {
	var rows [][]bus.Button
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}
