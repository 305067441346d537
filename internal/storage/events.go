package storage

import (
	"strings"

	"github.com/studyfrog/core/internal/key"
	"github.com/studyfrog/core/internal/model"
)

// Event name derivation follows the source's bootstrap convention: one
// dispatcher event per (verb, type) pair, built from the tag itself.

func pluralUpper(tag model.Tag) string {
	return strings.ToUpper(key.Pluralize(string(tag)))
}

func EventAdd(tag model.Tag) string            { return "ADD_" + string(tag) }
func EventAddIfNotExist(tag model.Tag) string  { return "ADD_" + string(tag) + "_IF_NOT_EXIST" }
func EventGet(tag model.Tag) string            { return "GET_" + string(tag) }
func EventGetAll(tag model.Tag) string         { return "GET_ALL_" + pluralUpper(tag) }
func EventFilter(tag model.Tag) string         { return "FILTER_" + pluralUpper(tag) }
func EventUpdate(tag model.Tag) string         { return "UPDATE_" + string(tag) }
func EventDelete(tag model.Tag) string         { return "DELETE_" + string(tag) }
func EventDeleteMany(tag model.Tag) string     { return "DELETE_MANY_" + pluralUpper(tag) }
func EventDeleteAll(tag model.Tag) string      { return "DELETE_ALL_" + pluralUpper(tag) }
