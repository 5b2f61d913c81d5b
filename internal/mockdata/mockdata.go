// Package mockdata holds the demo dataset shown when no data store answers.
package mockdata

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

//go:embed dinners.json
var dinnersJSON []byte

var dinners = mustDecode(dinnersJSON)

func mustDecode(data []byte) []model.Dinner {
	var ds []model.Dinner
	if err := json.Unmarshal(data, &ds); err != nil {
		panic(fmt.Sprintf("mockdata: decode dinners: %v", err))
	}
	return ds
}

// Dinners returns a fresh copy of the demo dinners.
func Dinners() []model.Dinner {
	return append([]model.Dinner(nil), dinners...)
}

// Dinner looks up a demo dinner by id.
func Dinner(id model.ID) (model.Dinner, bool) {
	for _, d := range dinners {
		if d.ID == id {
			return d, true
		}
	}
	return model.Dinner{}, false
}

// DemoUser is the signed-in user in every session.
var DemoUser = model.User{ID: "1", Name: "Demo User"}
