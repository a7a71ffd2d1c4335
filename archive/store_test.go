/*
	Photark
	Copyright (c) 2026 The Photark Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package archive

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreGetPutDelete(t *testing.T) {
	store := openTestStore(t)

	key := []byte("some key")

	if _, ok := store.Get(key); ok {
		t.Error("expected absent key before put")
	}

	if !store.Put(key, []byte("v1"), false) {
		t.Fatal("initial put failed")
	}
	if val, ok := store.Get(key); !ok || !bytes.Equal(val, []byte("v1")) {
		t.Errorf("got (%q, %t), want (v1, true)", val, ok)
	}

	store.Delete(key)
	if _, ok := store.Get(key); ok {
		t.Error("expected absent key after delete")
	}

	// delete of an absent key is a no-op
	store.Delete(key)
}

func TestStoreConditionalInsert(t *testing.T) {
	store := openTestStore(t)

	key := []byte("contested")

	if !store.Put(key, []byte("winner"), false) {
		t.Fatal("first conditional insert should succeed")
	}
	if store.Put(key, []byte("loser"), false) {
		t.Error("second conditional insert should fail")
	}

	// the losing put must not have mutated anything
	if val, _ := store.Get(key); !bytes.Equal(val, []byte("winner")) {
		t.Errorf("value = %q, want winner", val)
	}

	if !store.Put(key, []byte("updated"), true) {
		t.Error("overwrite put should succeed")
	}
	if val, _ := store.Get(key); !bytes.Equal(val, []byte("updated")) {
		t.Errorf("value = %q, want updated", val)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	store, err := OpenStore(ctx, path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if !store.Put([]byte("k"), []byte("v"), false) {
		t.Fatal("put failed")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	store, err = OpenStore(ctx, path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer store.Close()

	if val, ok := store.Get([]byte("k")); !ok || !bytes.Equal(val, []byte("v")) {
		t.Errorf("after reopen got (%q, %t), want (v, true)", val, ok)
	}
}
