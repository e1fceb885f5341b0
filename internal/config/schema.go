// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

const configSchema = `{
    "type": "object",
    "properties": {
        "addr": {
            "description": "Address where the http server will listen on.",
            "type": "string"
        },
        "user": {
            "description": "Drop root permissions to this user once the port was taken.",
            "type": "string"
        },
        "group": {
            "description": "Drop root permissions to this group once the port was taken.",
            "type": "string"
        },
        "queue-size": {
            "description": "Capacity of the dispatcher request channel.",
            "type": "integer",
            "minimum": 1
        },
        "stats-interval": {
            "description": "Interval for the periodic catalog stats log line, as Go duration. Empty disables it.",
            "type": "string"
        },
        "driver-poll-interval": {
            "description": "Interval for forced out-of-band driver polls, as Go duration. Empty disables it.",
            "type": "string"
        },
        "mock-driver": {
            "description": "Sinusoid signal generator driver.",
            "type": "object",
            "properties": {
                "enable": { "type": "boolean" },
                "tags": {
                    "description": "Tag names the driver creates and feeds.",
                    "type": "array",
                    "items": { "type": "string" }
                },
                "min": { "type": "number" },
                "max": { "type": "number" },
                "rate": {
                    "description": "Default poll rate as Go duration.",
                    "type": "string"
                }
            }
        },
        "modbus-driver": {
            "description": "Modbus/TCP polling driver.",
            "type": "object",
            "properties": {
                "enable": { "type": "boolean" },
                "address": {
                    "description": "Address of the Modbus/TCP slave.",
                    "type": "string"
                },
                "rate": {
                    "description": "Default poll rate as Go duration.",
                    "type": "string"
                },
                "registers": {
                    "description": "Mapping of tag name to holding register address.",
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer",
                        "minimum": 0,
                        "maximum": 65535
                    }
                }
            },
            "required": ["address"]
        },
        "nats": {
            "description": "NATS ingest of Influx line protocol tag updates.",
            "type": "object",
            "properties": {
                "address": {
                    "description": "Address of the NATS server.",
                    "type": "string"
                },
                "username": { "type": "string" },
                "password": { "type": "string" },
                "creds-file-path": { "type": "string" },
                "subject": {
                    "description": "Subject to subscribe to.",
                    "type": "string"
                }
            },
            "required": ["address", "subject"]
        }
    }
}`
