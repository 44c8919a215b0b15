/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"log/slog"

	"annotview/internal/annot"
	"annotview/internal/uistate"
)

// Action ids double as UI element ids, so each can be disabled in the store.
const (
	ActionComment   = "annotationCommentButton"
	ActionStyleEdit = "annotationStyleEditButton"
	ActionCrop      = "annotationCropButton"
	ActionRedact    = "annotationRedactButton"
	ActionGroup     = "annotationGroupButton"
	ActionUngroup   = "annotationUngroupButton"
	ActionDelete    = "annotationDeleteButton"
	ActionCalibrate = "calibrateButton"
	ActionLink      = "linkButton"
	ActionDownload  = "fileAttachmentDownload"
)

const iconUnlink = "icon-tool-unlink"

// Action is one action bar button. Label is a translation key.
type Action struct {
	ID       string
	Label    string
	Icon     string
	Activate func()
}

var titles = map[string]string{
	"action.comment":                "Comment",
	"action.style":                  "Style",
	"action.apply":                  "Apply",
	"action.group":                  "Group",
	"action.ungroup":                "Ungroup",
	"action.delete":                 "Delete",
	"action.calibrate":              "Calibrate",
	"tool.Link":                     "Link",
	"action.fileAttachmentDownload": "Download",
}

// Title is the English label of the action.
func (a Action) Title() string {
	if a.ID == ActionLink && a.Icon == iconUnlink {
		return "Unlink"
	}
	if t, ok := titles[a.Label]; ok {
		return t
	}
	return a.Label
}

// noteEditor is implemented by stores that can focus the notes panel editor.
type noteEditor interface {
	RequestNoteEditing()
}

func (c *Controller) buildActions(caps Capabilities) []Action {
	var out []Action
	add := func(ok bool, id, label, icon string, fn func()) {
		if !ok || c.store.IsDisabled(id) {
			return
		}
		out = append(out, Action{ID: id, Label: label, Icon: icon, Activate: c.activation(id, fn)})
	}
	add(caps.Comment, ActionComment, "action.comment", "icon-header-chat-line", func() { c.comment(caps.CommentInline) })
	add(caps.StyleEdit, ActionStyleEdit, "action.style", "icon-menu-style-line", c.OpenStyleEditor)
	add(caps.Crop, ActionCrop, "action.apply", "ic_check_black_24px", c.applyCrop)
	add(caps.Redact, ActionRedact, "action.apply", "ic_check_black_24px", c.redact)
	add(caps.Group, ActionGroup, "action.group", "ic_group_24px", c.group)
	add(caps.Ungroup, ActionUngroup, "action.ungroup", "ic_ungroup_24px", c.ungroup)
	add(caps.Delete, ActionDelete, "action.delete", "icon-delete-line", c.deleteSelected)
	add(caps.Calibrate, ActionCalibrate, "action.calibrate", "calibrate", c.calibrate)
	if caps.Unlink {
		add(caps.Link, ActionLink, "tool.Link", iconUnlink, c.unlinkAndClose)
	} else {
		add(caps.Link, ActionLink, "tool.Link", "icon-tool-link", c.openLinkDialog)
	}
	add(caps.Download, ActionDownload, "action.fileAttachmentDownload", "icon-download", c.download)
	return out
}

// activation wraps fn so a stale button does nothing once the subject is gone.
func (c *Controller) activation(id string, fn func()) func() {
	return func() {
		if c.state.Phase == Idle {
			c.log.Debug("action ignored without subject", "action", id)
			return
		}
		c.log.Debug("action", "action", id, "subject", c.state.Subject.ID)
		fn()
		if c.opts.OnAction != nil {
			c.opts.OnAction(id)
		}
		c.notify()
	}
}

func (c *Controller) comment(inline bool) {
	subject := c.state.Subject
	if inline {
		c.eng.TriggerDoubleClick(subject)
	} else {
		c.store.Open(uistate.NotesPanel)
		c.store.Close(uistate.SearchPanel)
		if ne, ok := c.store.(noteEditor); ok {
			ne.RequestNoteEditing()
		}
	}
	c.dispatch(Dismiss{})
}

func (c *Controller) applyCrop() {
	c.eng.ApplyCrop()
	c.dispatch(Dismiss{})
}

func (c *Controller) redact() {
	c.eng.ApplyRedactions([]*annot.Object{c.state.Subject})
	c.dispatch(Dismiss{})
}

func (c *Controller) group() {
	sel := c.eng.Selected()
	c.eng.Group(sel.Primary(), sel)
}

func (c *Controller) ungroup() {
	c.eng.Ungroup(c.eng.Selected())
}

func (c *Controller) deleteSelected() {
	c.eng.Delete(c.eng.Selected())
	c.dispatch(Dismiss{})
}

func (c *Controller) calibrate() {
	c.dispatch(Dismiss{})
	c.store.Open(uistate.CalibrationDialog)
}

func (c *Controller) openLinkDialog() {
	c.store.Open(uistate.LinkDialog)
	c.dispatch(Dismiss{})
}

func (c *Controller) download() {
	c.eng.TriggerDoubleClick(c.state.Subject)
	c.dispatch(Dismiss{})
}

func (c *Controller) unlinkAndClose() {
	Unlink(c.eng, c.log)
	c.hasLink = false
	c.dispatch(Dismiss{})
}

// Unlinker is the slice of the engine Unlink needs.
type Unlinker interface {
	Selected() annot.Selection
	ObjectByID(id string) *annot.Object
	DeleteCustomData(o *annot.Object, key string)
	Delete(objs []*annot.Object)
	DeleteBatch(objs []*annot.Object, cascade bool)
}

// Unlink removes the link data of every selected object and deletes the
// objects it pointed at. A transparent highlight is deleted together with its
// first link target, since it only exists to carry that link.
func Unlink(eng Unlinker, log *slog.Logger) {
	for _, o := range eng.Selected() {
		if annot.MalformedLinks(o) {
			log.Debug("link data is not a list, treating as empty", "id", o.ID)
		}
		type link struct {
			index int
			id    string
		}
		var links []link
		annot.EachLinkID(o, func(i int, id string) { links = append(links, link{i, id}) })
		eng.DeleteCustomData(o, annot.LinkIDKey)
		for _, l := range links {
			target := eng.ObjectByID(l.id)
			if target == nil {
				log.Debug("link target not found", "id", o.ID, "target", l.id)
				continue
			}
			if o.Kind == annot.KindTextHighlight && o.Opacity == 0 && l.index == 0 {
				eng.DeleteBatch([]*annot.Object{target, o}, true)
				continue
			}
			eng.Delete([]*annot.Object{target})
		}
	}
}
