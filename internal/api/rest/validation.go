package rest

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/orderdesk/orderdesk/pkg/model"
)

var validate = validator.New()

// validateStruct runs the struct's validate tags and flattens the first
// failure into a client-facing message.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required", "required_with":
			return fmt.Errorf("%s is required", name)
		case "max":
			return fmt.Errorf("%s is too long", name)
		case "min":
			return fmt.Errorf("%s must be at least %s", name, fe.Param())
		}
		return fmt.Errorf("%s is invalid", name)
	}
	return err
}

// parseSearchField resolves a field name sent by a client.
func parseSearchField(name string) (model.Field, error) {
	f, ok := model.ParseField(name)
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", model.ErrInvalidSearch, name)
	}
	return f, nil
}

// queryFor builds the query for an optional field/text pair.
func queryFor(field, text string) (model.Query, error) {
	if field == "" && text == "" {
		return model.BrowseQuery(), nil
	}
	f, err := parseSearchField(field)
	if err != nil {
		return model.Query{}, err
	}
	return model.SearchQuery(f, text)
}
