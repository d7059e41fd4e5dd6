package zarr

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
)

// attributesSchema constrains the parts of OME-Zarr attributes that are
// consumed downstream. It is deliberately lax about everything else so that
// extra keys written by other tools never cause a rejection.
const attributesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "transform": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string"},
        "scale": {"type": "array", "items": {"type": "number"}},
        "translation": {"type": "array", "items": {"type": "number"}}
      }
    },
    "transforms": {"type": "array", "items": {"$ref": "#/definitions/transform"}},
    "window": {
      "type": "object",
      "properties": {
        "min": {"type": ["number", "null"]},
        "max": {"type": ["number", "null"]},
        "start": {"type": ["number", "null"]},
        "end": {"type": ["number", "null"]}
      }
    }
  },
  "properties": {
    "multiscales": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["datasets"],
        "properties": {
          "axes": {
            "type": "array",
            "items": {
              "oneOf": [
                {"type": "string"},
                {
                  "type": "object",
                  "required": ["name"],
                  "properties": {
                    "name": {"type": "string"},
                    "type": {"type": ["string", "null"]},
                    "unit": {"type": ["string", "null"]}
                  }
                }
              ]
            }
          },
          "datasets": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["path"],
              "properties": {
                "path": {"type": "string"},
                "coordinateTransformations": {"$ref": "#/definitions/transforms"}
              }
            }
          },
          "coordinateTransformations": {"$ref": "#/definitions/transforms"}
        }
      }
    },
    "omero": {
      "type": "object",
      "properties": {
        "channels": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "label": {"type": "string"},
              "color": {"type": "string"},
              "window": {"$ref": "#/definitions/window"}
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func attributesValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("ome-attributes.json", attributesSchema)
	})
	return compiledSchema, schemaErr
}

// validateAttributes checks a decoded-to-be attributes document against the
// consumed OME-Zarr subset. Failures are METADATA_MALFORMED.
func validateAttributes(data []byte) error {
	sch, err := attributesValidator()
	if err != nil {
		return zerrors.Wrap(zerrors.ErrCodeInternal, err, "compile attributes schema")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return zerrors.Wrap(zerrors.ErrCodeMetadataMalformed, err, "decode attributes")
	}
	if err := sch.Validate(v); err != nil {
		return zerrors.Wrap(zerrors.ErrCodeMetadataMalformed, err, "attributes do not match the OME-Zarr layout")
	}
	return nil
}
