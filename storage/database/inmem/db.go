package inmemdb

import (
	"sync"

	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
)

type (
	DB struct {
		session    *sessionTable
		transcript *transcriptTable
		history    *historyTable
	}

	sessionTable struct {
		mutex sync.RWMutex
		table map[string]session.Session
	}

	transcriptTable struct {
		mutex sync.RWMutex
		table map[string][]chat.Message // by session ID
	}

	historyTable struct {
		mutex sync.RWMutex
		table []chat.HistoryEntry // insertion order
	}
)

func Open() *DB {
	return &DB{
		session:    &sessionTable{table: make(map[string]session.Session)},
		transcript: &transcriptTable{table: make(map[string][]chat.Message)},
		history:    &historyTable{},
	}
}
