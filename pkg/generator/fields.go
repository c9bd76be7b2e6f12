package generator

import (
	"fmt"
	"strings"
)

// Field is one entry of a `name:type[,name:type...]` list. A trailing `?`
// on the name marks the field optional.
type Field struct {
	Name        string
	Type        string
	Label       string
	Required    bool
	Placeholder string
	Validation  string
}

// ParseFields parses a comma separated name:type list. Entries without a
// type get defaultType and empty entries are skipped.
func ParseFields(list, defaultType string) ([]Field, error) {
	var fields []Field
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, typ, _ := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		typ = strings.TrimSpace(typ)
		if typ == "" {
			typ = defaultType
		}
		required := true
		if strings.HasSuffix(name, "?") {
			name = strings.TrimSuffix(name, "?")
			required = false
		}
		if name == "" {
			return nil, fmt.Errorf("%w: field %q has no name", ErrInvalidOptions, entry)
		}
		fields = append(fields, Field{
			Name:        name,
			Type:        typ,
			Label:       capitalizeFirst(name),
			Required:    required,
			Placeholder: fmt.Sprintf("Enter %s...", name),
		})
	}
	return fields, nil
}

// Input types understood by the form and view templates.
var inputTSTypes = map[string]string{
	"text":     "string",
	"email":    "string",
	"password": "string",
	"textarea": "string",
	"number":   "number",
	"decimal":  "number",
	"date":     "string",
	"datetime": "string",
	"checkbox": "boolean",
	"select":   "string",
	"enum":     "string",
}

func inputTSType(inputType string) string {
	if ts, ok := inputTSTypes[inputType]; ok {
		return ts
	}
	return "string"
}

var inputComponents = map[string]string{
	"text":     "ArchbaseEdit",
	"email":    "ArchbaseEdit",
	"password": "ArchbasePasswordEdit",
	"textarea": "ArchbaseTextArea",
	"number":   "ArchbaseNumberEdit",
	"decimal":  "ArchbaseNumberEdit",
	"date":     "ArchbaseDatePicker",
	"datetime": "ArchbaseDatePicker",
	"checkbox": "ArchbaseCheckbox",
	"select":   "ArchbaseSelect",
	"enum":     "ArchbaseSelect",
}

func inputComponent(inputType string) string {
	if c, ok := inputComponents[inputType]; ok {
		return c
	}
	return "ArchbaseEdit"
}

// validationFor returns the schema expression of an input type.
func validationFor(library, inputType string, required bool) string {
	var expr string
	switch library {
	case "yup":
		switch inputType {
		case "email":
			expr = "yup.string().email()"
		case "password":
			expr = "yup.string().min(6)"
		case "number", "decimal":
			expr = "yup.number()"
		case "checkbox":
			expr = "yup.boolean()"
		default:
			expr = "yup.string()"
		}
		if required {
			expr += ".required()"
		}
	case "zod":
		switch inputType {
		case "email":
			expr = "z.string().email()"
		case "password":
			expr = "z.string().min(6)"
		case "number", "decimal":
			expr = "z.number()"
		case "checkbox":
			expr = "z.boolean()"
		default:
			expr = "z.string()"
			if required {
				expr += ".min(1)"
			}
		}
		if !required {
			expr += ".optional()"
		}
	}
	return expr
}
