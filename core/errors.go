// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidFragment indicates a Fragment failed validation.
	ErrInvalidFragment = errors.New("invalid fragment")

	// ErrEmptyText indicates the document Text field is empty or blank.
	ErrEmptyText = errors.New("document text cannot be empty")

	// ErrEmptyContent indicates the fragment Content field is empty.
	ErrEmptyContent = errors.New("fragment content cannot be empty")

	// ErrContentTooShort indicates fragment content is below the minimum length.
	ErrContentTooShort = errors.New("fragment content below minimum length")

	// ErrContentTooLong indicates fragment content is above the maximum length.
	ErrContentTooLong = errors.New("fragment content above maximum length")

	// ErrInvalidPriority indicates a document priority outside [1, 10].
	ErrInvalidPriority = errors.New("priority must be between 1 and 10")

	// ErrInvalidStatus indicates an invalid Status value.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidMethod indicates an invalid SegmentMethod value.
	ErrInvalidMethod = errors.New("invalid segmentation method")

	// ErrInvalidPosition indicates fragment offsets that do not describe a
	// non-empty span in document order.
	ErrInvalidPosition = errors.New("invalid fragment position")

	// ErrMissingVector indicates an embedding-completed fragment without a vector.
	ErrMissingVector = errors.New("completed embedding requires a vector")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
