package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"

	"tripweaver/models"
)

var (
	ErrUnknownOp    = errors.New("unknown edit operation")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

const (
	OpSetField       = "setField"
	OpSetDayField    = "setDayField"
	OpAddActivity    = "addActivity"
	OpRemoveActivity = "removeActivity"
	OpUpdateActivity = "updateActivity"
	OpAddTip         = "addTip"
	OpRemoveTip      = "removeTip"
	OpUpdateTip      = "updateTip"
	OpReorderDays    = "reorderDays"
)

// Op is one edit as sent by clients over HTTP or the live channel.
//
//	{"op":"setField","field":"title","value":"Paris"}
//	{"op":"updateActivity","day":0,"index":2,"value":"Louvre"}
//	{"op":"reorderDays","from":2,"to":0}
type Op struct {
	Op    string          `json:"op"`
	Field string          `json:"field,omitempty"`
	Day   int             `json:"day,omitempty"`
	Index int             `json:"index,omitempty"`
	From  int             `json:"from,omitempty"`
	To    int             `json:"to,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Apply validates op against it and returns the edited copy. Unlike the list
// operations it never panics: bad indices come back as ErrIndexOutOfRange.
func Apply(it models.Itinerary, op Op) (models.Itinerary, error) {
	switch op.Op {
	case OpSetField:
		v, err := decodeValue(fieldKinds, op.Field, op.Value)
		if err != nil {
			return it, err
		}
		out := WithField(it, op.Field, v)
		if op.Field == "days" {
			out = Renumber(out)
		}
		return out, nil

	case OpSetDayField:
		if err := CheckDayIndex(it, op.Day); err != nil {
			return it, err
		}
		v, err := decodeValue(dayFieldKinds, op.Field, op.Value)
		if err != nil {
			return it, err
		}
		return UpdateDay(it, op.Day, op.Field, v), nil

	case OpAddActivity:
		if err := CheckDayIndex(it, op.Day); err != nil {
			return it, err
		}
		return AddActivity(it, op.Day), nil

	case OpRemoveActivity:
		if err := CheckActivityIndex(it, op.Day, op.Index); err != nil {
			return it, err
		}
		return RemoveActivity(it, op.Day, op.Index), nil

	case OpUpdateActivity:
		if err := CheckActivityIndex(it, op.Day, op.Index); err != nil {
			return it, err
		}
		s, err := decodeString(op.Value)
		if err != nil {
			return it, err
		}
		return UpdateActivity(it, op.Day, op.Index, s), nil

	case OpAddTip:
		return AddTip(it), nil

	case OpRemoveTip:
		if err := CheckTipIndex(it, op.Index); err != nil {
			return it, err
		}
		return RemoveTip(it, op.Index), nil

	case OpUpdateTip:
		if err := CheckTipIndex(it, op.Index); err != nil {
			return it, err
		}
		s, err := decodeString(op.Value)
		if err != nil {
			return it, err
		}
		return UpdateTip(it, op.Index, s), nil

	case OpReorderDays:
		if err := CheckDayIndex(it, op.From); err != nil {
			return it, err
		}
		if err := CheckDayIndex(it, op.To); err != nil {
			return it, err
		}
		return ReorderDays(it, op.From, op.To), nil
	}
	return it, fmt.Errorf("%q: %w", op.Op, ErrUnknownOp)
}

func decodeValue(kinds map[string]string, field string, raw json.RawMessage) (any, error) {
	kind, ok := kinds[field]
	if !ok {
		return nil, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	var err error
	switch kind {
	case "string":
		return decodeString(raw)
	case "strings":
		var v []string
		if err = json.Unmarshal(raw, &v); err == nil && v != nil {
			return v, nil
		}
	case "days":
		var v []models.Day
		if err = json.Unmarshal(raw, &v); err == nil && v != nil {
			return v, nil
		}
	case "meals":
		var v models.Meals
		if err = json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}
	if err == nil {
		err = errors.New("null")
	}
	return nil, fmt.Errorf("field %q: %w: %v", field, ErrInvalidValue, err)
}

func decodeString(raw json.RawMessage) (string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", fmt.Errorf("%w: expected a string", ErrInvalidValue)
	}
	return *s, nil
}
