package place

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	domplace "github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

// Hash field names. Double-underscore fields are internal and never leave
// the repository layer unstripped.
const (
	fieldName          = "name"
	fieldDescription   = "description"
	fieldAddress       = "address"
	fieldAddressDetail = "address_detail"
	fieldCategory      = "category"
	fieldLongitude     = "lon"
	fieldLatitude      = "lat"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
	fieldSearchText    = "__search"
	fieldVector        = "__vector"
	fieldVectorModel   = "__vector_model"
	fieldVectorDirty   = "__vector_dirty"
)

// buildHashFields converts a domain Place into a flat map[string]string for HSET.
// The canonical search text is stored alongside so the FT TEXT index and the
// keyword fallback see exactly what the embedding was derived from.
func buildHashFields(p *domplace.Place) map[string]string {
	m := map[string]string{
		fieldName:          p.Name(),
		fieldDescription:   p.Description(),
		fieldAddress:       p.Address(),
		fieldAddressDetail: p.AddressDetail(),
		fieldCategory:      p.Category(),
		fieldLongitude:     strconv.FormatFloat(p.Longitude(), 'f', -1, 64),
		fieldLatitude:      strconv.FormatFloat(p.Latitude(), 'f', -1, 64),
		fieldSearchText:    p.SearchText(),
		fieldCreatedAt:     p.CreatedAt().UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt:     p.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
	if p.HasEmbedding() {
		m[fieldVector] = vectorToBytes(p.Embedding())
		m[fieldVectorModel] = p.EmbeddingModel()
	}
	m[fieldVectorDirty] = boolField(p.EmbeddingDirty())
	return m
}

// parseHashFields converts a flat hash map back into a domain Place.
func parseHashFields(id string, m map[string]string) domplace.Place {
	lon, _ := strconv.ParseFloat(m[fieldLongitude], 64)
	lat, _ := strconv.ParseFloat(m[fieldLatitude], 64)
	createdAt := parseTimeField(m[fieldCreatedAt])
	updatedAt := parseTimeField(m[fieldUpdatedAt])

	var vec []float32
	if raw, ok := m[fieldVector]; ok {
		vec = bytesToVector(raw)
	}

	return domplace.Reconstruct(
		id,
		m[fieldName], m[fieldDescription],
		m[fieldAddress], m[fieldAddressDetail], m[fieldCategory],
		lon, lat,
		vec, m[fieldVectorModel], m[fieldVectorDirty] == "1",
		createdAt, updatedAt,
	)
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseTimeField(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
