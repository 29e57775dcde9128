package storage

// ConfigJSONSchema documents the runtime shape expected by storage providers.
// runtimeconfig validates index storage settings against it before the
// container opens a connection. Provider-specific options go in the nested
// "options" map.
const ConfigJSONSchema = `
{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "StorageConfig",
  "type": "object",
  "required": ["driver", "dsn"],
  "properties": {
    "name": {
      "type": "string",
      "description": "Human readable identifier for the storage configuration"
    },
    "driver": {
      "type": "string",
      "enum": ["sqlite3", "postgres"],
      "description": "Driver identifier understood by the storage adapter"
    },
    "dsn": {
      "type": "string",
      "description": "Connection string or URI for the provider"
    },
    "readOnly": {
      "type": "boolean",
      "default": false
    },
    "options": {
      "type": "object",
      "additionalProperties": true
    }
  },
  "additionalProperties": false
}
`
