/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// DefaultGap is the distance kept between an anchor and a placed popup and
// between a popup and the viewport edge.
const DefaultGap float32 = 4

// Place returns the top-left corner for a popup of size popup anchored to
// anchor inside a viewport of size viewport. The popup goes below the anchor
// when it fits, above otherwise; when neither side fits it is pinned to the
// side with more room. Horizontally it is aligned with the anchor's left edge
// and clamped so that it stays within the viewport.
func Place(anchor Rect, popup Size, viewport Size, gap float32) Pt {
	x := anchor.X
	yBelow := anchor.Y + anchor.H + gap
	yAbove := anchor.Y - popup.H - gap

	minX, maxX := clampRange(gap, viewport.W-popup.W-gap, viewport.W-popup.W)
	minY, maxY := clampRange(gap, viewport.H-popup.H-gap, viewport.H-popup.H)

	y := yBelow
	switch {
	case yBelow <= maxY:
	case yAbove >= minY:
		y = yAbove
	default:
		if yAbove-minY > maxY-yBelow {
			y = minY
		} else {
			y = maxY
		}
	}

	if x > maxX {
		x = maxX
	}
	if x < minX {
		x = minX
	}
	return Pt{X: x, Y: y}
}

// clampRange drops the edge margin when the popup is larger than the space
// it leaves, and never returns a negative upper bound.
func clampRange(lo, hi, noMarginHi float32) (float32, float32) {
	if hi < lo {
		lo, hi = 0, noMarginHi
	}
	if hi < 0 {
		hi = 0
	}
	return lo, hi
}
