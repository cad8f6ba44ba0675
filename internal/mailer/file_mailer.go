package mailer

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// FileMailer appends messages as JSON lines to an outbox file and fsyncs each write.
type FileMailer struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

// NewFileMailer opens (or creates) the outbox at filePath.
func NewFileMailer(filePath string) (*FileMailer, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &FileMailer{
		filePath: filePath,
		file:     file,
	}, nil
}

func (m *FileMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("Outbox: Failed to marshal message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}

	if _, err := m.file.Write(append(data, '\n')); err != nil {
		logger.Log.Error("Outbox: Failed to write message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}

	syncStart := time.Now()
	if err := m.file.Sync(); err != nil {
		logger.Log.Error("Outbox: Failed to sync to disk",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Outbox: Message written and synced",
		zap.String("message_id", msg.ID),
		zap.String("to", msg.To),
		zap.Duration("sync_duration", time.Since(syncStart)),
		zap.Duration("total_duration", time.Since(start)),
	)

	return nil
}

// ReadAll returns every message in the outbox, oldest first. Corrupt lines are skipped.
func (m *FileMailer) ReadAll() ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return readOutbox(m.filePath)
}

// LastMessageTo returns the newest message addressed to recipient, or nil.
func (m *FileMailer) LastMessageTo(recipient string) (*Message, error) {
	messages, err := m.ReadAll()
	if err != nil {
		return nil, err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].To == recipient {
			return &messages[i], nil
		}
	}
	return nil, nil
}

func (m *FileMailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}

// ReadOutbox reads an outbox file without opening it for writing.
func ReadOutbox(filePath string) ([]Message, error) {
	return readOutbox(filePath)
}

func readOutbox(filePath string) ([]Message, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Message{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var messages []Message
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, scanner.Err()
}
