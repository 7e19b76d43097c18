package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/dto"
)

// Meta describes the stored snapshot.
type Meta struct {
	Version     string `db:"version"`
	SavedAtUnix int64  `db:"saved_at"`
	EntityCount int    `db:"entity_count"`
}

// SavedAt returns the save time.
func (m Meta) SavedAt() time.Time {
	return time.UnixMilli(m.SavedAtUnix)
}

type entityRow struct {
	Kind    string `db:"kind"`
	Key     string `db:"entity_key"`
	Seq     int    `db:"seq"`
	Payload string `db:"payload"`
}

// Version computes the content version of s: the hex sha256 of its JSON
// encoding.
func Version(s *dto.Snapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Save stores s, replacing the previous snapshot in one transaction. It
// reports false without writing when the stored version already matches.
func (s *Store) Save(ctx context.Context, snap *dto.Snapshot) (bool, error) {
	if snap == nil {
		return false, ErrNilSnapshot
	}
	version, err := Version(snap)
	if err != nil {
		return false, newError(s.backend, "encode", err)
	}
	rows, err := encodeRows(snap)
	if err != nil {
		return false, newError(s.backend, "encode", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.meta(ctx)
	switch {
	case err == nil && meta.Version == version:
		s.logger.Debug("snapshot unchanged, skipping save", "version", version)
		return false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return false, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, newError(s.backend, "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q.get("delete-snapshot-entities")); err != nil {
		return false, newError(s.backend, "save", err)
	}
	insert := s.q.get("insert-snapshot-entity")
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, insert, r.Kind, r.Key, r.Seq, r.Payload); err != nil {
			return false, newError(s.backend, "save", fmt.Errorf("%s %q: %w", r.Kind, r.Key, err))
		}
	}
	if _, err := tx.ExecContext(ctx, s.q.get("delete-snapshot-meta")); err != nil {
		return false, newError(s.backend, "save", err)
	}
	if _, err := tx.ExecContext(ctx, s.q.get("insert-snapshot-meta"), version, time.Now().UnixMilli(), len(rows)); err != nil {
		return false, newError(s.backend, "save", err)
	}
	if err := tx.Commit(); err != nil {
		return false, newError(s.backend, "commit", err)
	}

	s.logger.Info("snapshot saved", "version", version, "entities", len(rows))
	return true, nil
}

// Load returns the stored snapshot and its version.
func (s *Store) Load(ctx context.Context) (*dto.Snapshot, string, error) {
	meta, err := s.meta(ctx)
	if err != nil {
		return nil, "", err
	}

	var rows []entityRow
	if err := s.db.SelectContext(ctx, &rows, s.q.get("list-snapshot-entities")); err != nil {
		return nil, "", newError(s.backend, "load", err)
	}
	snap, err := decodeRows(rows)
	if err != nil {
		return nil, "", newError(s.backend, "decode", err)
	}
	return snap, meta.Version, nil
}

// Meta returns the stored snapshot's metadata.
func (s *Store) Meta(ctx context.Context) (Meta, error) {
	return s.meta(ctx)
}

func (s *Store) meta(ctx context.Context) (Meta, error) {
	var m Meta
	err := s.db.GetContext(ctx, &m, s.q.get("get-snapshot-meta"))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	if err != nil {
		return m, newError(s.backend, "meta", err)
	}
	return m, nil
}

func encodeRows(snap *dto.Snapshot) ([]entityRow, error) {
	rows := make([]entityRow, 0, snap.Len())
	add := func(kind dto.ConfigGroup, key string, seq int, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s %q: %w", kind, key, err)
		}
		rows = append(rows, entityRow{Kind: string(kind), Key: key, Seq: seq, Payload: string(data)})
		return nil
	}

	for i, p := range snap.Plugins {
		if err := add(dto.GroupPlugin, p.Name, i, p); err != nil {
			return nil, err
		}
	}
	for i, sel := range snap.Selectors {
		if err := add(dto.GroupSelector, sel.ID, i, sel); err != nil {
			return nil, err
		}
	}
	for i, r := range snap.Rules {
		if err := add(dto.GroupRule, r.ID, i, r); err != nil {
			return nil, err
		}
	}
	for i, a := range snap.AppAuths {
		if err := add(dto.GroupAppAuth, a.AppKey, i, a); err != nil {
			return nil, err
		}
	}
	for i, m := range snap.Metas {
		if err := add(dto.GroupMeta, m.Path, i, m); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func decodeRows(rows []entityRow) (*dto.Snapshot, error) {
	snap := &dto.Snapshot{
		Plugins:   []dto.PluginData{},
		Selectors: []dto.SelectorData{},
		Rules:     []dto.RuleData{},
		AppAuths:  []dto.AppAuthData{},
		Metas:     []dto.MetaData{},
	}
	for _, r := range rows {
		var err error
		data := []byte(r.Payload)
		switch dto.ConfigGroup(r.Kind) {
		case dto.GroupPlugin:
			var v dto.PluginData
			if err = json.Unmarshal(data, &v); err == nil {
				snap.Plugins = append(snap.Plugins, v)
			}
		case dto.GroupSelector:
			var v dto.SelectorData
			if err = json.Unmarshal(data, &v); err == nil {
				snap.Selectors = append(snap.Selectors, v)
			}
		case dto.GroupRule:
			var v dto.RuleData
			if err = json.Unmarshal(data, &v); err == nil {
				snap.Rules = append(snap.Rules, v)
			}
		case dto.GroupAppAuth:
			var v dto.AppAuthData
			if err = json.Unmarshal(data, &v); err == nil {
				snap.AppAuths = append(snap.AppAuths, v)
			}
		case dto.GroupMeta:
			var v dto.MetaData
			if err = json.Unmarshal(data, &v); err == nil {
				snap.Metas = append(snap.Metas, v)
			}
		default:
			err = fmt.Errorf("unknown kind")
		}
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", r.Kind, r.Key, err)
		}
	}
	return snap, nil
}
