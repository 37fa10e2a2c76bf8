package sqlstore

import (
	"bytes"
	"encoding/gob"

	"github.com/stellar/soroban-tools/ledger"
)

// encodeKey renders a ledger.Key as bytes suitable for a primary-key
// column. gob is used as the stand-in persistence encoding; nothing here
// claims wire-format compatibility with the network.
func encodeKey(key ledger.Key) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(key); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEntry(entry ledger.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntry(b []byte) (ledger.Entry, error) {
	var entry ledger.Entry
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&entry); err != nil {
		return ledger.Entry{}, err
	}
	return entry, nil
}
