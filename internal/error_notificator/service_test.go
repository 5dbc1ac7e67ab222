package error_notificator

import (
	"context"
	"errors"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestInfraSendsToAdminChat(t *testing.T) {
	sender := &fakeSender{}
	infra := NewInfra(sender, 42)

	require.NoError(t, infra.Notify(context.Background(), errors.New("whisper 500"), "stage=transcribe"))
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "whisper 500")
	assert.Contains(t, msg.Text, "stage=transcribe")
}

func TestServiceSwallowsDeliveryErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	svc := NewService(NewInfra(sender, 1), logger.NewZapLogger(zap.NewNop().Sugar()))

	assert.NoError(t, svc.Notify(context.Background(), errors.New("x"), "y"))
	assert.Len(t, sender.sent, 1)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, NewNoop().Notify(context.Background(), errors.New("x"), "y"))
}
