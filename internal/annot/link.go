/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annot

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// LinkIDKey is the custom data key holding the ids of linked objects.
const LinkIDKey = "trn-link-id"

// CustomValue returns the custom data entry stored under key.
func (o *Object) CustomValue(key string) gjson.Result {
	if o == nil || o.CustomData == "" || !gjson.Valid(o.CustomData) {
		return gjson.Result{}
	}
	return gjson.Get(o.CustomData, key)
}

// SetCustomData stores v under key.
func (o *Object) SetCustomData(key string, v any) error {
	doc := o.CustomData
	if doc == "" || !gjson.Valid(doc) {
		doc = "{}"
	}
	out, err := sjson.Set(doc, key, v)
	if err != nil {
		return err
	}
	o.CustomData = out
	return nil
}

// DeleteCustomData removes key; a missing key is not an error.
func (o *Object) DeleteCustomData(key string) error {
	if o.CustomData == "" || !gjson.Valid(o.CustomData) {
		return nil
	}
	out, err := sjson.Delete(o.CustomData, key)
	if err != nil {
		return err
	}
	o.CustomData = out
	return nil
}

// LinkIDs returns the ids of objects linked to o in stored order. A missing
// entry or one that is not an array yields no links.
func LinkIDs(o *Object) []string {
	var ids []string
	EachLinkID(o, func(_ int, id string) { ids = append(ids, id) })
	return ids
}

// EachLinkID calls fn for every non-empty linked id together with its
// position in the stored array. Empty entries keep their slot.
func EachLinkID(o *Object, fn func(index int, id string)) {
	r := o.CustomValue(LinkIDKey)
	if !r.IsArray() {
		return
	}
	for i, v := range r.Array() {
		if id := v.String(); id != "" {
			fn(i, id)
		}
	}
}

// MalformedLinks reports a link entry that exists but is not an array.
func MalformedLinks(o *Object) bool {
	r := o.CustomValue(LinkIDKey)
	return r.Exists() && !r.IsArray()
}

// HasLinks reports whether o has at least one linked object id.
func HasLinks(o *Object) bool { return len(LinkIDs(o)) > 0 }
