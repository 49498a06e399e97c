package skills

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

const dictionarySchema = `{
  "type": "object",
  "required": ["version", "updated_at", "domains", "skills"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "updated_at": {"type": ["string", "null"]},
    "domains": {
      "type": "array",
      "minItems": 1,
      "items": {"type": ["string", "number"]}
    },
    "skills": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "properties": {
          "canonical": {"type": ["string", "null"]},
          "domain": {"type": ["string", "null"]},
          "aliases": {"$ref": "#/definitions/nameList"},
          "related": {"$ref": "#/definitions/nameList"},
          "certifications": {"$ref": "#/definitions/nameList"}
        }
      }
    }
  },
  "definitions": {
    "nameList": {
      "type": ["array", "null"],
      "items": {"type": ["string", "number", "boolean"]}
    }
  }
}`

var dictionarySchemaLoader = gojsonschema.NewStringLoader(dictionarySchema)

// validateShape checks the decoded document against the dictionary schema and
// reports every violation in a single validation error.
func validateShape(doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(dictionarySchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return apperrors.Validation(apperrors.CodeDictionaryInvalid, "dictionary document could not be validated: %v", err)
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	for i, desc := range result.Errors() {
		if i > 0 {
			sb.WriteString("; ")
		}
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		sb.WriteString(fmt.Sprintf("%s: %s", field, desc.Description()))
	}

	return apperrors.Validation(apperrors.CodeDictionaryInvalid, "invalid skills dictionary: %s", sb.String())
}
