package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/inputval"
	"github.com/dalemusser/contributor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fullInput holds the rules a listing must meet to be published.
type fullInput struct {
	Name      *string  `validate:"required,nonblank" label:"name"`
	Email     *string  `validate:"required,emailaddr" label:"email"`
	Phone     *int64   `validate:"required,gte=0" label:"phone"`
	OrgName   *string  `validate:"required,nonblank,max=200" label:"org_name"`
	Latitude  *float64 `validate:"omitempty,gte=-90,lte=90" label:"latitude"`
	Longitude *float64 `validate:"omitempty,gte=-180,lte=180" label:"longitude"`
}

// partialInput applies the same rules to whichever fields are present.
type partialInput struct {
	Name      *string  `validate:"omitnil,nonblank" label:"name"`
	Email     *string  `validate:"omitnil,emailaddr" label:"email"`
	Phone     *int64   `validate:"omitnil,gte=0" label:"phone"`
	OrgName   *string  `validate:"omitnil,nonblank,max=200" label:"org_name"`
	Latitude  *float64 `validate:"omitnil,gte=-90,lte=90" label:"latitude"`
	Longitude *float64 `validate:"omitnil,gte=-180,lte=180" label:"longitude"`
}

func validateFull(f models.ResourceFields) error {
	res := inputval.Validate(fullInput{
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		OrgName:   f.OrgName,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
	})
	if res.HasErrors() {
		return apperr.Validation(res.All())
	}
	return nil
}

func validatePartial(f models.ResourceFields) error {
	res := inputval.Validate(partialInput{
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		OrgName:   f.OrgName,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
	})
	if res.HasErrors() {
		return apperr.Validation(res.All())
	}
	return nil
}

// DecodeFields parses a JSON object of resource fields. Keys outside the
// resource schema and values of the wrong JSON type are validation errors.
// Explicit nulls are treated as absent.
func DecodeFields(data []byte) (models.ResourceFields, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return models.ResourceFields{}, apperr.Validation("request body must be a JSON object")
	}
	var unknown []string
	for k := range keys {
		if !models.ResourceFieldNames[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return models.ResourceFields{}, apperr.Validation(fmt.Sprintf("unknown fields: %v", unknown))
	}

	var f models.ResourceFields
	if err := json.Unmarshal(data, &f); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return models.ResourceFields{}, apperr.Validation(fmt.Sprintf("%s must be a %s", te.Field, jsonKind(te.Type.Kind().String())))
		}
		return models.ResourceFields{}, apperr.Validation("request body is not valid resource JSON")
	}
	return f, nil
}

func jsonKind(goKind string) string {
	switch goKind {
	case "int64":
		return "whole number"
	case "float64":
		return "number"
	default:
		return goKind
	}
}

// ParseID parses a hex ObjectID from a path parameter.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("Invalid id")
	}
	return id, nil
}
