// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"encoding/json"
	"fmt"
)

// Unit is the engineering unit attached to a tag. It is a label only, there
// is no conversion or arithmetic on it.
type Unit string

const (
	UnitNone     Unit = "None"
	UnitPercent  Unit = "Percent"
	UnitVolt     Unit = "Volt"
	UnitAmpere   Unit = "Ampere"
	UnitDegree   Unit = "Degree"
	UnitRadian   Unit = "Radian"
	UnitCelsius  Unit = "Celsius"
	UnitKelvin   Unit = "Kelvin"
	UnitMetre    Unit = "Metre"
	UnitKilogram Unit = "Kilogram"
	UnitSecond   Unit = "Second"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitNone, UnitPercent, UnitVolt, UnitAmpere, UnitDegree, UnitRadian,
		UnitCelsius, UnitKelvin, UnitMetre, UnitKilogram, UnitSecond:
		return true
	}
	return false
}

// Suffix returns the display suffix used by the viewer, empty for UnitNone.
func (u Unit) Suffix() string {
	switch u {
	case UnitPercent:
		return "%"
	case UnitVolt:
		return "V"
	case UnitAmpere:
		return "A"
	case UnitDegree:
		return "°"
	case UnitRadian:
		return "rad"
	case UnitCelsius:
		return "°C"
	case UnitKelvin:
		return "K"
	case UnitMetre:
		return "m"
	case UnitKilogram:
		return "kg"
	case UnitSecond:
		return "s"
	}
	return ""
}

func (u *Unit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	v := Unit(s)
	if !v.Valid() {
		return fmt.Errorf("SCHEMA/UNIT > invalid unit: %#v", s)
	}

	*u = v
	return nil
}
