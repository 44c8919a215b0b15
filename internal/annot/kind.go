/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annot

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of annotation variants the overlays care about.
type Kind int

const (
	KindGeneric Kind = iota
	KindRectangle
	KindEllipse
	KindPolygon
	KindInk
	KindFreeText
	KindLine
	KindTextHighlight
	KindLink
	KindFileAttachment
	KindRedaction
	KindSticky
	KindWidget
	KindCountMarker
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindGeneric, KindRectangle, KindEllipse, KindPolygon, KindInk, KindFreeText, KindLine,
	KindTextHighlight, KindLink, KindFileAttachment, KindRedaction, KindSticky, KindWidget,
	KindCountMarker,
}

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindRectangle:
		return "rectangle"
	case KindEllipse:
		return "ellipse"
	case KindPolygon:
		return "polygon"
	case KindInk:
		return "ink"
	case KindFreeText:
		return "freetext"
	case KindLine:
		return "line"
	case KindTextHighlight:
		return "highlight"
	case KindLink:
		return "link"
	case KindFileAttachment:
		return "fileattachment"
	case KindRedaction:
		return "redaction"
	case KindSticky:
		return "sticky"
	case KindWidget:
		return "widget"
	case KindCountMarker:
		return "count"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String and is case-insensitive.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if k.String() == want {
			return k, nil
		}
	}
	return KindGeneric, fmt.Errorf("unknown annotation kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// View keys used to pick measurement panel variants.
const (
	KeyCountMeasurement     = "countMeasurement"
	KeyDistanceMeasurement  = "distanceMeasurement"
	KeyPerimeterMeasurement = "perimeterMeasurement"
	KeyAreaMeasurement      = "areaMeasurement"
	KeyRectangularArea      = "rectangularAreaMeasurement"
	KeyEllipseArea          = "ellipseMeasurement"
)

// Key maps an object to its view key. Measurement variants get a dedicated
// key; every other object is keyed by its kind name.
func Key(o *Object) string {
	if o == nil {
		return ""
	}
	switch o.Kind {
	case KindCountMarker:
		return KeyCountMeasurement
	case KindLine:
		if o.Measure {
			return KeyDistanceMeasurement
		}
	case KindPolygon:
		if o.Measure {
			return KeyAreaMeasurement
		}
	case KindInk:
		if o.Measure {
			return KeyPerimeterMeasurement
		}
	case KindRectangle:
		if o.Measure {
			return KeyRectangularArea
		}
	case KindEllipse:
		if o.Measure {
			return KeyEllipseArea
		}
	case KindGeneric, KindFreeText, KindTextHighlight, KindLink, KindFileAttachment,
		KindRedaction, KindSticky, KindWidget:
	}
	return o.Kind.String()
}

// IsMeasurement reports whether o renders a measurement panel.
func IsMeasurement(o *Object) bool {
	if o == nil {
		return false
	}
	return o.Kind == KindCountMarker || o.Measure
}
