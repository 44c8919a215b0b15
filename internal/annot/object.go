/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package annot holds the annotation model consumed by the overlays: objects,
// their kind tag, selection sets and the link relation kept in custom data.
package annot

import (
	"encoding/json"
	"maps"

	"gopkg.in/yaml.v3"

	"annotview/internal/geometry"
)

// Tool classifications with special overlay handling.
const (
	ToolCropPage         = "CropPage"
	ToolSignature        = "AnnotationCreateSignature"
	ToolRedaction        = "AnnotationCreateRedaction"
	ToolSticky           = "AnnotationCreateSticky"
	ToolSticky2          = "AnnotationCreateSticky2"
	ToolSticky3          = "AnnotationCreateSticky3"
	ToolSticky4          = "AnnotationCreateSticky4"
	ToolDistance         = "AnnotationCreateDistanceMeasurement"
	ToolCountMeasurement = "AnnotationCreateCountMeasurement"
	ToolEdit             = "AnnotationEdit"
)

// DefaultLinkExcludedTools returns the tools whose objects cannot carry links.
func DefaultLinkExcludedTools() []string {
	return []string{
		ToolCropPage,
		ToolSignature,
		ToolRedaction,
		ToolSticky,
		ToolSticky2,
		ToolSticky3,
		ToolSticky4,
	}
}

// DefaultCommentExcludedTools returns the tools whose objects cannot be commented.
func DefaultCommentExcludedTools() []string { return []string{ToolCropPage} }

// Object is an annotation-like entity on a document page. Rect is in page
// coordinates; the engine maps it to screen space.
type Object struct {
	ID             string            `json:"id" yaml:"id"`
	Kind           Kind              `json:"kind" yaml:"kind"`
	ToolName       string            `json:"tool,omitempty" yaml:"tool,omitempty"`
	Page           int               `json:"page" yaml:"page"`
	Rect           geometry.Rect     `json:"rect" yaml:"rect"`
	InReplyTo      string            `json:"inReplyTo,omitempty" yaml:"inReplyTo,omitempty"`
	GroupID        string            `json:"group,omitempty" yaml:"group,omitempty"`
	Author         string            `json:"author,omitempty" yaml:"author,omitempty"`
	Contents       string            `json:"contents,omitempty" yaml:"contents,omitempty"`
	Opacity        float64           `json:"opacity" yaml:"opacity"`
	Measure        bool              `json:"measure,omitempty" yaml:"measure,omitempty"`
	Locked         bool              `json:"locked,omitempty" yaml:"locked,omitempty"`
	LockedContents bool              `json:"lockedContents,omitempty" yaml:"lockedContents,omitempty"`
	NoDelete       bool              `json:"noDelete,omitempty" yaml:"noDelete,omitempty"`
	Style          map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
	// CustomData is a JSON object text; empty means no custom data.
	CustomData string `json:"-" yaml:"-"`
}

// HasStyle reports whether the object carries any style properties.
func (o *Object) HasStyle() bool { return o != nil && len(o.Style) > 0 }

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	c.Style = maps.Clone(o.Style)
	return &c
}

// Same reports whether a and b refer to the same object.
func Same(a, b *Object) bool {
	return a != nil && b != nil && a.ID == b.ID
}

type objectAlias Object

type objectJSON struct {
	objectAlias
	CustomData json.RawMessage `json:"customData,omitempty"`
}

func (o Object) MarshalJSON() ([]byte, error) {
	aux := objectJSON{objectAlias: objectAlias(o)}
	if o.CustomData != "" {
		aux.CustomData = json.RawMessage(o.CustomData)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON defaults Opacity to 1 when absent.
func (o *Object) UnmarshalJSON(b []byte) error {
	aux := objectJSON{objectAlias: objectAlias{Opacity: 1}}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*o = Object(aux.objectAlias)
	if len(aux.CustomData) > 0 && string(aux.CustomData) != "null" {
		o.CustomData = string(aux.CustomData)
	}
	return nil
}

type objectYAML struct {
	objectAlias `yaml:",inline"`
	CustomData  map[string]any `yaml:"customData,omitempty"`
}

// UnmarshalYAML accepts customData as a nested mapping and defaults Opacity to 1.
func (o *Object) UnmarshalYAML(n *yaml.Node) error {
	aux := objectYAML{objectAlias: objectAlias{Opacity: 1}}
	if err := n.Decode(&aux); err != nil {
		return err
	}
	*o = Object(aux.objectAlias)
	if len(aux.CustomData) > 0 {
		b, err := json.Marshal(aux.CustomData)
		if err != nil {
			return err
		}
		o.CustomData = string(b)
	}
	return nil
}
