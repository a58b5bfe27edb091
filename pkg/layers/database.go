/*
 Copyright (C) 2022-2026, The layerlist Go Library Authors

 This file is part of layerlist: A Go Library for Keyed Ordered Layers.

 layerlist is free software; you can redistribute it and/or
 modify it under the terms of the GNU Lesser General Public
 License as published by the Free Software Foundation; either
 version 2.1 of the License, or any later version.

 layerlist is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
 See the GNU Lesser General Public License for more details.

 A copy of the GNU Lesser General Public License is provided by this
 library under LICENSE.md. If absent, it can be found within the
 GitHub repository:
          https://github.com/justincpresley/layerlist
*/

package layers

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	bolt "go.etcd.io/bbolt"
)

// Database is a flat key/value backend. Get returns a nil value and a nil
// error for a missing key.
type Database interface {
	Get(key []byte) (val []byte, err error)
	Set(key []byte, value []byte) error
	Remove(key []byte) error
	Close()
}

// OpenDatabase opens the backend named by cfg.
func OpenDatabase(cfg *Config) (Database, error) {
	switch cfg.Backend {
	case BoltBackend:
		return NewBoltDB(cfg.Path, []byte(cfg.Bucket))
	case SQLiteBackend:
		return NewSQLiteDB(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

type BoltDB struct {
	handle *bolt.DB
	bucket []byte
}

func NewBoltDB(path string, bucket []byte) (BoltDB, error) {
	var (
		err error
		db  *bolt.DB
	)
	path = resolvePath(path)
	err = ensureDirectory(path)
	if err != nil {
		return BoltDB{nil, nil}, err
	}
	db, err = bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{nil, nil}, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return BoltDB{nil, nil}, err
	}
	return BoltDB{handle: db, bucket: bucket}, nil
}

func (fs BoltDB) Get(key []byte) (val []byte, err error) {
	err = fs.handle.View(func(tx *bolt.Tx) error {
		buc := tx.Bucket(fs.bucket)
		// bolt memory is only valid inside the transaction
		if v := buc.Get(key); v != nil {
			val = append([]byte{}, v...)
		}
		return nil
	})
	return val, err
}

func (fs BoltDB) Set(key []byte, value []byte) error {
	return fs.handle.Update(func(tx *bolt.Tx) error {
		buc := tx.Bucket(fs.bucket)
		return buc.Put(key, value)
	})
}

func (fs BoltDB) Remove(key []byte) error {
	return fs.handle.Update(func(tx *bolt.Tx) error {
		buc := tx.Bucket(fs.bucket)
		return buc.Delete(key)
	})
}

func (fs BoltDB) Close() {
	fs.handle.Close()
}

type SQLiteDB struct {
	handle *sql.DB
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS layers (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

func NewSQLiteDB(path string) (SQLiteDB, error) {
	path = resolvePath(path)
	if err := ensureDirectory(path); err != nil {
		return SQLiteDB{}, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return SQLiteDB{}, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return SQLiteDB{}, fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return SQLiteDB{handle: db}, nil
}

func (fs SQLiteDB) Get(key []byte) (val []byte, err error) {
	row := fs.handle.QueryRow("SELECT value FROM layers WHERE key = ?", string(key))
	if err := row.Scan(&val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (fs SQLiteDB) Set(key []byte, value []byte) error {
	_, err := fs.handle.Exec(
		"INSERT INTO layers (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		string(key), value)
	return err
}

func (fs SQLiteDB) Remove(key []byte) error {
	_, err := fs.handle.Exec("DELETE FROM layers WHERE key = ?", string(key))
	return err
}

func (fs SQLiteDB) Close() {
	fs.handle.Close()
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		err := os.MkdirAll(dir, os.ModePerm)
		if err != nil {
			return err
		}
	}
	return nil
}

func resolvePath(path string) string {
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		path = usr.HomeDir
	} else if strings.HasPrefix(path, "~/") {
		path = filepath.Join(usr.HomeDir, path[2:])
	} else if strings.HasPrefix(path, "./") {
		path, _ = filepath.Abs(path)
	}
	return path
}
