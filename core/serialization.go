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

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persistent record types. Every serializer
// implements the Marshal/Unmarshal/Size/Skip quartet over a compact
// varint-based layout. Timestamps travel as Unix microseconds and come
// back in UTC; optional values carry a one-byte presence flag.
var (
	IDMUS               = idMUS{}
	StatusMUS           = statusMUS{}
	SegmentMethodMUS    = segmentMethodMUS{}
	ContentTypeMUS      = contentTypeMUS{}
	ErrorRecordMUS      = errorRecordMUS{}
	PositionMUS         = positionMUS{}
	FragmentMetadataMUS = fragmentMetadataMUS{}
	UsageStatsMUS       = usageStatsMUS{}
	VectorMUS           = vectorMUS{}
	DocumentMUS         = documentMUS{}
	FragmentMUS         = fragmentMUS{}
	SearchHitMUS        = searchHitMUS{}
	SearchHitsMUS       = searchHitsMUS{}
	StringSliceMUS      = stringSliceMUS{}
)

// -----------------------------------------------------------------------------
// ID
// -----------------------------------------------------------------------------

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	return ID(num), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// -----------------------------------------------------------------------------
// Enums
// -----------------------------------------------------------------------------

type statusMUS struct{}

func (s statusMUS) Marshal(v Status, bs []byte) (n int) {
	return varint.Byte.Marshal(byte(v), bs)
}

func (s statusMUS) Unmarshal(bs []byte) (v Status, n int, err error) {
	b, n, err := varint.Byte.Unmarshal(bs)
	return Status(b), n, err
}

func (s statusMUS) Size(v Status) (size int) {
	return varint.Byte.Size(byte(v))
}

func (s statusMUS) Skip(bs []byte) (n int, err error) {
	return varint.Byte.Skip(bs)
}

type segmentMethodMUS struct{}

func (s segmentMethodMUS) Marshal(v SegmentMethod, bs []byte) (n int) {
	return varint.Byte.Marshal(byte(v), bs)
}

func (s segmentMethodMUS) Unmarshal(bs []byte) (v SegmentMethod, n int, err error) {
	b, n, err := varint.Byte.Unmarshal(bs)
	return SegmentMethod(b), n, err
}

func (s segmentMethodMUS) Size(v SegmentMethod) (size int) {
	return varint.Byte.Size(byte(v))
}

func (s segmentMethodMUS) Skip(bs []byte) (n int, err error) {
	return varint.Byte.Skip(bs)
}

type contentTypeMUS struct{}

func (s contentTypeMUS) Marshal(v ContentType, bs []byte) (n int) {
	return varint.Byte.Marshal(byte(v), bs)
}

func (s contentTypeMUS) Unmarshal(bs []byte) (v ContentType, n int, err error) {
	b, n, err := varint.Byte.Unmarshal(bs)
	return ContentType(b), n, err
}

func (s contentTypeMUS) Size(v ContentType) (size int) {
	return varint.Byte.Size(byte(v))
}

func (s contentTypeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Byte.Skip(bs)
}

// -----------------------------------------------------------------------------
// Timestamps
// -----------------------------------------------------------------------------

type timeMUS struct{}

func (s timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (s timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	num, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	return time.UnixMicro(num).UTC(), n, nil
}

func (s timeMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

func (s timeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

type timePtrMUS struct{}

func (s timePtrMUS) Marshal(v *time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(v != nil, bs)
	if v != nil {
		n += timeMUS{}.Marshal(*v, bs[n:])
	}
	return
}

func (s timePtrMUS) Unmarshal(bs []byte) (v *time.Time, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	var (
		t  time.Time
		n1 int
	)
	t, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return &t, n, nil
}

func (s timePtrMUS) Size(v *time.Time) (size int) {
	size = ord.Bool.Size(v != nil)
	if v != nil {
		size += timeMUS{}.Size(*v)
	}
	return
}

func (s timePtrMUS) Skip(bs []byte) (n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	var n1 int
	n1, err = timeMUS{}.Skip(bs[n:])
	n += n1
	return
}

// -----------------------------------------------------------------------------
// ErrorRecord
// -----------------------------------------------------------------------------

type errorRecordMUS struct{}

func (s errorRecordMUS) Marshal(v ErrorRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.Message, bs)
	n += ord.String.Marshal(v.Code, bs[n:])
	n += timeMUS{}.Marshal(v.Timestamp, bs[n:])
	n += varint.Int.Marshal(v.RetryCount, bs[n:])
	return
}

func (s errorRecordMUS) Unmarshal(bs []byte) (v ErrorRecord, n int, err error) {
	v.Message, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Code, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RetryCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s errorRecordMUS) Size(v ErrorRecord) (size int) {
	size = ord.String.Size(v.Message)
	size += ord.String.Size(v.Code)
	size += timeMUS{}.Size(v.Timestamp)
	size += varint.Int.Size(v.RetryCount)
	return
}

func (s errorRecordMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timeMUS{}.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

type errorRecordPtrMUS struct{}

func (s errorRecordPtrMUS) Marshal(v *ErrorRecord, bs []byte) (n int) {
	n = ord.Bool.Marshal(v != nil, bs)
	if v != nil {
		n += errorRecordMUS{}.Marshal(*v, bs[n:])
	}
	return
}

func (s errorRecordPtrMUS) Unmarshal(bs []byte) (v *ErrorRecord, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	var (
		rec ErrorRecord
		n1  int
	)
	rec, n1, err = errorRecordMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return &rec, n, nil
}

func (s errorRecordPtrMUS) Size(v *ErrorRecord) (size int) {
	size = ord.Bool.Size(v != nil)
	if v != nil {
		size += errorRecordMUS{}.Size(*v)
	}
	return
}

func (s errorRecordPtrMUS) Skip(bs []byte) (n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	var n1 int
	n1, err = errorRecordMUS{}.Skip(bs[n:])
	n += n1
	return
}

// -----------------------------------------------------------------------------
// Position
// -----------------------------------------------------------------------------

type positionMUS struct{}

func (s positionMUS) Marshal(v Position, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Index, bs)
	n += varint.Int.Marshal(v.StartIndex, bs[n:])
	n += varint.Int.Marshal(v.EndIndex, bs[n:])
	return
}

func (s positionMUS) Unmarshal(bs []byte) (v Position, n int, err error) {
	v.Index, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.StartIndex, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EndIndex, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s positionMUS) Size(v Position) (size int) {
	size = varint.Int.Size(v.Index)
	size += varint.Int.Size(v.StartIndex)
	size += varint.Int.Size(v.EndIndex)
	return
}

func (s positionMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	return
}

// -----------------------------------------------------------------------------
// FragmentMetadata
// -----------------------------------------------------------------------------

type fragmentMetadataMUS struct{}

func (s fragmentMetadataMUS) Marshal(v FragmentMetadata, bs []byte) (n int) {
	n = varint.Int.Marshal(v.WordCount, bs)
	n += varint.Int.Marshal(v.CharCount, bs[n:])
	n += ContentTypeMUS.Marshal(v.ContentType, bs[n:])
	n += SegmentMethodMUS.Marshal(v.Method, bs[n:])
	n += varint.Int.Marshal(v.OverlapBefore, bs[n:])
	n += varint.Int.Marshal(v.OverlapAfter, bs[n:])
	return
}

func (s fragmentMetadataMUS) Unmarshal(bs []byte) (v FragmentMetadata, n int, err error) {
	v.WordCount, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.CharCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ContentType, n1, err = ContentTypeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Method, n1, err = SegmentMethodMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.OverlapBefore, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.OverlapAfter, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s fragmentMetadataMUS) Size(v FragmentMetadata) (size int) {
	size = varint.Int.Size(v.WordCount)
	size += varint.Int.Size(v.CharCount)
	size += ContentTypeMUS.Size(v.ContentType)
	size += SegmentMethodMUS.Size(v.Method)
	size += varint.Int.Size(v.OverlapBefore)
	size += varint.Int.Size(v.OverlapAfter)
	return
}

func (s fragmentMetadataMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 2; i++ {
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = ContentTypeMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = SegmentMethodMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// -----------------------------------------------------------------------------
// UsageStats
// -----------------------------------------------------------------------------

type usageStatsMUS struct{}

func (s usageStatsMUS) Marshal(v UsageStats, bs []byte) (n int) {
	n = varint.Int64.Marshal(v.QueryCount, bs)
	n += varint.Int64.Marshal(v.RetrievalCount, bs[n:])
	n += varint.Float64.Marshal(v.AvgRelevance, bs[n:])
	n += varint.Int64.Marshal(v.TopResultCount, bs[n:])
	return
}

func (s usageStatsMUS) Unmarshal(bs []byte) (v UsageStats, n int, err error) {
	v.QueryCount, n, err = varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.RetrievalCount, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.AvgRelevance, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.TopResultCount, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	return
}

func (s usageStatsMUS) Size(v UsageStats) (size int) {
	size = varint.Int64.Size(v.QueryCount)
	size += varint.Int64.Size(v.RetrievalCount)
	size += varint.Float64.Size(v.AvgRelevance)
	size += varint.Int64.Size(v.TopResultCount)
	return
}

func (s usageStatsMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int64.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Float64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

// -----------------------------------------------------------------------------
// Vector
// -----------------------------------------------------------------------------

type vectorMUS struct{}

func (s vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return
}

func (s vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil || length == 0 {
		return
	}
	// Cap the preallocation by the remaining bytes so a corrupt length
	// cannot force a huge allocation.
	c := length
	if rem := len(bs) - n; c > rem {
		c = rem
	}
	v = make([]float32, 0, c)
	var (
		f  float32
		n1 int
	)
	for i := 0; i < length; i++ {
		f, n1, err = varint.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v = append(v, f)
	}
	return
}

func (s vectorMUS) Size(v []float32) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return
}

func (s vectorMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < length; i++ {
		n1, err = varint.Float32.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// -----------------------------------------------------------------------------
// Document
// -----------------------------------------------------------------------------

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.Hash, bs[n:])
	n += varint.Int64.Marshal(v.SizeBytes, bs[n:])
	n += varint.Int.Marshal(v.WordCount, bs[n:])
	n += varint.Int.Marshal(v.CharCount, bs[n:])
	n += StatusMUS.Marshal(v.ProcessingStatus, bs[n:])
	n += StatusMUS.Marshal(v.ChunkingStatus, bs[n:])
	n += StatusMUS.Marshal(v.EmbeddingStatus, bs[n:])
	n += varint.Int.Marshal(v.FragmentCount, bs[n:])
	n += varint.Int.Marshal(v.Priority, bs[n:])
	n += errorRecordPtrMUS{}.Marshal(v.Error, bs[n:])
	n += timePtrMUS{}.Marshal(v.DeletedAt, bs[n:])
	n += timeMUS{}.Marshal(v.InsertedAt, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Filename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Hash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SizeBytes, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.WordCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CharCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ProcessingStatus, n1, err = StatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ChunkingStatus, n1, err = StatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EmbeddingStatus, n1, err = StatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FragmentCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Priority, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Error, n1, err = errorRecordPtrMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DeletedAt, n1, err = timePtrMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Filename)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.Hash)
	size += varint.Int64.Size(v.SizeBytes)
	size += varint.Int.Size(v.WordCount)
	size += varint.Int.Size(v.CharCount)
	size += StatusMUS.Size(v.ProcessingStatus)
	size += StatusMUS.Size(v.ChunkingStatus)
	size += StatusMUS.Size(v.EmbeddingStatus)
	size += varint.Int.Size(v.FragmentCount)
	size += varint.Int.Size(v.Priority)
	size += errorRecordPtrMUS{}.Size(v.Error)
	size += timePtrMUS{}.Size(v.DeletedAt)
	size += timeMUS{}.Size(v.InsertedAt)
	size += timeMUS{}.Size(v.UpdatedAt)
	return
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < 4; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 3; i++ {
		n1, err = StatusMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 2; i++ {
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = errorRecordPtrMUS{}.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timePtrMUS{}.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = timeMUS{}.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// -----------------------------------------------------------------------------
// Fragment
// -----------------------------------------------------------------------------

type fragmentMUS struct{}

func (s fragmentMUS) Marshal(v Fragment, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += PositionMUS.Marshal(v.Position, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += FragmentMetadataMUS.Marshal(v.Metadata, bs[n:])
	n += VectorMUS.Marshal(v.Vector, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	n += varint.Float32.Marshal(v.Confidence, bs[n:])
	n += UsageStatsMUS.Marshal(v.Usage, bs[n:])
	n += StatusMUS.Marshal(v.ProcessingStatus, bs[n:])
	n += StatusMUS.Marshal(v.EmbeddingStatus, bs[n:])
	n += errorRecordPtrMUS{}.Marshal(v.Error, bs[n:])
	n += IDMUS.Marshal(v.PrevId, bs[n:])
	n += IDMUS.Marshal(v.NextId, bs[n:])
	n += timePtrMUS{}.Marshal(v.DeletedAt, bs[n:])
	n += timeMUS{}.Marshal(v.InsertedAt, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (s fragmentMUS) Unmarshal(bs []byte) (v Fragment, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Position, n1, err = PositionMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = FragmentMetadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Confidence, n1, err = varint.Float32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Usage, n1, err = UsageStatsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ProcessingStatus, n1, err = StatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EmbeddingStatus, n1, err = StatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Error, n1, err = errorRecordPtrMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.PrevId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.NextId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DeletedAt, n1, err = timePtrMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	n += n1
	return
}

func (s fragmentMUS) Size(v Fragment) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.DocumentId)
	size += PositionMUS.Size(v.Position)
	size += ord.String.Size(v.Content)
	size += FragmentMetadataMUS.Size(v.Metadata)
	size += VectorMUS.Size(v.Vector)
	size += ord.String.Size(v.Model)
	size += varint.Float32.Size(v.Confidence)
	size += UsageStatsMUS.Size(v.Usage)
	size += StatusMUS.Size(v.ProcessingStatus)
	size += StatusMUS.Size(v.EmbeddingStatus)
	size += errorRecordPtrMUS{}.Size(v.Error)
	size += IDMUS.Size(v.PrevId)
	size += IDMUS.Size(v.NextId)
	size += timePtrMUS{}.Size(v.DeletedAt)
	size += timeMUS{}.Size(v.InsertedAt)
	size += timeMUS{}.Size(v.UpdatedAt)
	return
}

func (s fragmentMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = IDMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = PositionMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = FragmentMetadataMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = VectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Float32.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = UsageStatsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = StatusMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = errorRecordPtrMUS{}.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = IDMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = timePtrMUS{}.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = timeMUS{}.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// -----------------------------------------------------------------------------
// SearchHit
// -----------------------------------------------------------------------------

type searchHitMUS struct{}

func (s searchHitMUS) Marshal(v SearchHit, bs []byte) (n int) {
	n = ord.Bool.Marshal(v.Fragment != nil, bs)
	if v.Fragment != nil {
		n += FragmentMUS.Marshal(*v.Fragment, bs[n:])
	}
	n += ord.String.Marshal(v.DocumentTitle, bs[n:])
	n += ord.String.Marshal(v.DocumentFilename, bs[n:])
	n += varint.Float32.Marshal(v.Similarity, bs[n:])
	return
}

func (s searchHitMUS) Unmarshal(bs []byte) (v SearchHit, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	if present {
		var frag Fragment
		frag, n1, err = FragmentMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v.Fragment = &frag
	}
	v.DocumentTitle, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocumentFilename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Similarity, n1, err = varint.Float32.Unmarshal(bs[n:])
	n += n1
	return
}

func (s searchHitMUS) Size(v SearchHit) (size int) {
	size = ord.Bool.Size(v.Fragment != nil)
	if v.Fragment != nil {
		size += FragmentMUS.Size(*v.Fragment)
	}
	size += ord.String.Size(v.DocumentTitle)
	size += ord.String.Size(v.DocumentFilename)
	size += varint.Float32.Size(v.Similarity)
	return
}

func (s searchHitMUS) Skip(bs []byte) (n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	if present {
		n1, err = FragmentMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 2; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Float32.Skip(bs[n:])
	n += n1
	return
}

type searchHitsMUS struct{}

func (s searchHitsMUS) Marshal(v []*SearchHit, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, hit := range v {
		var h SearchHit
		if hit != nil {
			h = *hit
		}
		n += SearchHitMUS.Marshal(h, bs[n:])
	}
	return
}

func (s searchHitsMUS) Unmarshal(bs []byte) (v []*SearchHit, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil || length == 0 {
		return
	}
	c := length
	if rem := len(bs) - n; c > rem {
		c = rem
	}
	v = make([]*SearchHit, 0, c)
	var (
		hit SearchHit
		n1  int
	)
	for i := 0; i < length; i++ {
		hit, n1, err = SearchHitMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		h := hit
		v = append(v, &h)
	}
	return
}

func (s searchHitsMUS) Size(v []*SearchHit) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, hit := range v {
		var h SearchHit
		if hit != nil {
			h = *hit
		}
		size += SearchHitMUS.Size(h)
	}
	return
}

func (s searchHitsMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < length; i++ {
		n1, err = SearchHitMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// -----------------------------------------------------------------------------
// String slice
// -----------------------------------------------------------------------------

type stringSliceMUS struct{}

func (s stringSliceMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, str := range v {
		n += ord.String.Marshal(str, bs[n:])
	}
	return
}

func (s stringSliceMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil || length == 0 {
		return
	}
	c := length
	if rem := len(bs) - n; c > rem {
		c = rem
	}
	v = make([]string, 0, c)
	var (
		str string
		n1  int
	)
	for i := 0; i < length; i++ {
		str, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v = append(v, str)
	}
	return
}

func (s stringSliceMUS) Size(v []string) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, str := range v {
		size += ord.String.Size(str)
	}
	return
}

func (s stringSliceMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < length; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
