// Package event declares the overworld event model: the persons, warps,
// triggers and signposts referenced by a map's event header in ROM.
package event

import (
	"github.com/agbkit/agbrom/schema"
)

// Registered type names.
const (
	TypePerson       = "event.person"
	TypeWarp         = "event.warp"
	TypeTrigger      = "event.trigger"
	TypeSignpost     = "event.signpost"
	TypeSignpostItem = "event.signpost_item"
	TypeSignpostVal  = "event.signpost_value"
	TypeHeader       = "event.event_header"

	TypePersonArray   = "event.person_array"
	TypeWarpArray     = "event.warp_array"
	TypeTriggerArray  = "event.trigger_array"
	TypeSignpostArray = "event.signpost_array"

	TypePersonArrayPtr   = "event.person_array_pointer"
	TypeWarpArrayPtr     = "event.warp_array_pointer"
	TypeTriggerArrayPtr  = "event.trigger_array_pointer"
	TypeSignpostArrayPtr = "event.signpost_array_pointer"

	// TypeScriptPtr is an opaque pointer into overworld script data; the
	// codec never follows it.
	TypeScriptPtr = "ow_script_pointer"
)

// Signpost types below this value carry a script pointer; the rest carry a
// hidden-item bitfield.
const signpostScriptLimit = 5

// Register installs the event model into reg.
func Register(reg *schema.Registry) error {
	definitions := []struct {
		name string
		t    *schema.Type
	}{
		{TypeScriptPtr, schema.Pointer("", schema.IndexedLabel("ow_script", 4, false))},

		{TypePerson, schema.Struct(
			schema.Field{Name: "target_index", Type: "u8"},
			schema.Field{Name: "picture", Type: "u8"},
			schema.Field{Name: "field_2", Type: "u8"},
			schema.Field{Name: "field_3", Type: "u8"},
			schema.Field{Name: "x", Type: "s16"},
			schema.Field{Name: "y", Type: "s16"},
			schema.Field{Name: "level", Type: "u8"},
			schema.Field{Name: "behaviour", Type: "u8"},
			schema.Field{Name: "behaviour_range", Type: "u8"},
			schema.Field{Name: "field_B", Type: "u8"},
			schema.Field{Name: "is_trainer", Type: "u8"},
			schema.Field{Name: "field_D", Type: "u8"},
			schema.Field{Name: "alert_radius", Type: "u16"},
			schema.Field{Name: "script", Type: TypeScriptPtr},
			schema.Field{Name: "flag", Type: "u16"},
			schema.Field{Name: "field_16", Type: "u16"},
		)},

		{TypeTrigger, schema.Struct(
			schema.Field{Name: "x", Type: "s16"},
			schema.Field{Name: "y", Type: "s16"},
			schema.Field{Name: "level", Type: "u8"},
			schema.Field{Name: "field_5", Type: "u8"},
			schema.Field{Name: "var", Type: "u16"},
			schema.Field{Name: "value", Type: "u16"},
			schema.Field{Name: "field_A", Type: "u8"},
			schema.Field{Name: "field_B", Type: "u8"},
			schema.Field{Name: "script", Type: TypeScriptPtr},
		)},

		{TypeWarp, schema.Struct(
			schema.Field{Name: "x", Type: "s16"},
			schema.Field{Name: "y", Type: "s16"},
			schema.Field{Name: "level", Type: "u8"},
			schema.Field{Name: "target_warp_idx", Type: "u8"},
			schema.Field{Name: "target_map", Type: "u8"},
			schema.Field{Name: "target_bank", Type: "u8"},
		)},

		{TypeSignpostItem, schema.Bitfield("u32",
			schema.Subfield{Name: "item", Bits: 16},
			schema.Subfield{Name: "flag", Bits: 8},
			schema.Subfield{Name: "amount", Bits: 8},
		)},

		{TypeSignpostVal, schema.Union(
			schema.ThresholdCase([]string{"type"}, signpostScriptLimit, "script", "item"),
			schema.Case{Name: "item", Type: TypeSignpostItem},
			schema.Case{Name: "script", Type: TypeScriptPtr},
		)},

		{TypeSignpost, schema.Struct(
			schema.Field{Name: "x", Type: "s16"},
			schema.Field{Name: "y", Type: "s16"},
			schema.Field{Name: "level", Type: "u8"},
			schema.Field{Name: "type", Type: "u8"},
			schema.Field{Name: "field_6", Type: "u8"},
			schema.Field{Name: "field_7", Type: "u8"},
			schema.Field{Name: "value", Type: TypeSignpostVal},
		)},

		{TypePersonArray, schema.Array(TypePerson, schema.FieldPathLength("person_cnt"))},
		{TypeWarpArray, schema.Array(TypeWarp, schema.FieldPathLength("warp_cnt"))},
		{TypeTriggerArray, schema.Array(TypeTrigger, schema.FieldPathLength("trigger_cnt"))},
		{TypeSignpostArray, schema.Array(TypeSignpost, schema.FieldPathLength("signpost_cnt"))},

		// The label is always persons/warps/triggers/signposts, 2-aligned
		// and not global: one event header per linked map unit.
		{TypePersonArrayPtr, schema.Pointer(TypePersonArray, schema.FixedLabel("persons", 2, false))},
		{TypeWarpArrayPtr, schema.Pointer(TypeWarpArray, schema.FixedLabel("warps", 2, false))},
		{TypeTriggerArrayPtr, schema.Pointer(TypeTriggerArray, schema.FixedLabel("triggers", 2, false))},
		{TypeSignpostArrayPtr, schema.Pointer(TypeSignpostArray, schema.FixedLabel("signposts", 2, false))},

		{TypeHeader, schema.Struct(
			schema.Field{Name: "person_cnt", Type: "u8"},
			schema.Field{Name: "warp_cnt", Type: "u8"},
			schema.Field{Name: "trigger_cnt", Type: "u8"},
			schema.Field{Name: "signpost_cnt", Type: "u8"},
			schema.Field{Name: "persons", Type: TypePersonArrayPtr},
			schema.Field{Name: "warps", Type: TypeWarpArrayPtr},
			schema.Field{Name: "triggers", Type: TypeTriggerArrayPtr},
			schema.Field{Name: "signposts", Type: TypeSignpostArrayPtr},
		)},
	}

	for _, def := range definitions {
		if err := reg.Define(def.name, def.t); err != nil {
			return err
		}
	}
	return nil
}
