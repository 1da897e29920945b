package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/vangona/jeju-guide-sub000/internal/db"
)

// CreateIndex issues FT.CREATE for the given definition. An index that
// already exists maps to db.ErrIndexExists so callers can treat creation
// as idempotent.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createIndexArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if redisErrContains(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: "FT.CREATE", Key: def.Name, Err: err}
	}
	return nil
}

// IndexExists probes an index via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if redisErrContains(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: "FT.INFO", Key: name, Err: err}
	}
	return true, nil
}

func createIndexArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("index needs at least one field")
	}

	args := []string{def.Name, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Name == "" {
			return nil, errors.New("field name is required")
		}

		switch f.Type {
		case db.IndexFieldText:
			args = append(args, f.Name, "TEXT")
		case db.IndexFieldTag:
			args = append(args, f.Name, "TAG")
		case db.IndexFieldVector:
			vecArgs, err := vectorFieldArgs(f)
			if err != nil {
				return nil, err
			}
			args = append(args, vecArgs...)
		default:
			return nil, errors.New("unknown field type " + string(f.Type))
		}
	}

	return args, nil
}

// vectorFieldArgs renders a VECTOR schema entry. RediSearch wants the
// attribute count before the attribute pairs.
func vectorFieldArgs(f *db.IndexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	algo := f.VectorAlgo
	if algo == "" {
		algo = db.VectorHNSW
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", "COSINE",
	}
	if algo == db.VectorHNSW && f.VectorM > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
	}
	if algo == db.VectorHNSW && f.VectorEFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
	}

	out := append([]string{f.Name, "VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...)
	return out, nil
}
