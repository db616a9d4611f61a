package channel

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rraild/vuzbot/internal/bus"
	"github.com/rraild/vuzbot/internal/config"
)

type mockBot struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	updates   chan tgbotapi.Update
}

func newMockBot() *mockBot {
	return &mockBot{updates: make(chan tgbotapi.Update, 4)}
}

func (m *mockBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updates
}

func (m *mockBot) StopReceivingUpdates() {}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, nil
}

func (m *mockBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.requested = append(m.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockBot) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "vuzbot_test"}
}

func newTestChannel(t *testing.T, cfg config.TelegramConfig) (*TelegramChannel, *mockBot, *bus.MessageBus) {
	t.Helper()
	b := bus.NewMessageBus(8)
	mock := newMockBot()
	ch, err := NewTelegramChannelWithFactory(cfg, b, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	ch.SetBot(mock)
	return ch, mock, b
}

func TestNewTelegramChannel_RequiresToken(t *testing.T) {
	_, err := NewTelegramChannel(config.TelegramConfig{}, bus.NewMessageBus(1), zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestHandleMessage_PushesInbound(t *testing.T) {
	ch, _, b := newTestChannel(t, config.TelegramConfig{Token: "t"})

	ch.handleMessage(&tgbotapi.Message{
		From: &tgbotapi.User{ID: 100, UserName: "ivan"},
		Chat: &tgbotapi.Chat{ID: 200},
		Text: "Начать поиск",
		Date: int(time.Now().Unix()),
	})

	select {
	case ev := <-b.Inbound:
		if ev.SenderID != "100" || ev.ChatID != "200" || ev.Text != "Начать поиск" {
			t.Errorf("event = %+v", ev)
		}
		if ev.IsChoice() {
			t.Error("plain message reported as choice")
		}
	default:
		t.Fatal("no inbound event pushed")
	}
}

func TestHandleMessage_AllowList(t *testing.T) {
	ch, _, b := newTestChannel(t, config.TelegramConfig{Token: "t", AllowFrom: []string{"7"}})

	ch.handleMessage(&tgbotapi.Message{
		From: &tgbotapi.User{ID: 100},
		Chat: &tgbotapi.Chat{ID: 200},
		Text: "привет",
	})
	select {
	case ev := <-b.Inbound:
		t.Fatalf("rejected sender still pushed %+v", ev)
	default:
	}

	ch.handleMessage(&tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 200},
		Text: "привет",
	})
	select {
	case <-b.Inbound:
	default:
		t.Fatal("allowed sender was rejected")
	}
}

func TestHandleCallback_AcksThenPushes(t *testing.T) {
	ch, mock, b := newTestChannel(t, config.TelegramConfig{Token: "t"})

	ch.handleCallback(&tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 100},
		Data: "page_1",
		Message: &tgbotapi.Message{
			MessageID: 55,
			Chat:      &tgbotapi.Chat{ID: 200},
		},
	})

	if len(mock.requested) != 1 {
		t.Fatalf("ack requests = %d, want 1", len(mock.requested))
	}
	select {
	case ev := <-b.Inbound:
		if ev.Choice != "page_1" || ev.MessageID != 55 || ev.SenderID != "100" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("no inbound event pushed")
	}
}

func TestSend_PlainMessageWithReplyKeyboard(t *testing.T) {
	ch, mock, _ := newTestChannel(t, config.TelegramConfig{Token: "t"})

	err := ch.Send(bus.Outbound{
		ChatID: "200",
		Text:   "Выберите пункт меню",
		Menu: &bus.Menu{
			Rows:        [][]bus.Button{{{Label: "Начать поиск"}}},
			Placeholder: "...",
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(mock.sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(mock.sent))
	}
	msg, ok := mock.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent type = %T, want MessageConfig", mock.sent[0])
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("markup type = %T, want ReplyKeyboardMarkup", msg.ReplyMarkup)
	}
	if !markup.ResizeKeyboard || markup.Keyboard[0][0].Text != "Начать поиск" {
		t.Errorf("markup = %+v", markup)
	}
}

func TestSend_InlineKeyboard(t *testing.T) {
	ch, mock, _ := newTestChannel(t, config.TelegramConfig{Token: "t"})

	err := ch.Send(bus.Outbound{
		ChatID: "200",
		Text:   "Подходящие университеты",
		Menu: &bus.Menu{
			Inline: true,
			Rows:   [][]bus.Button{{{Label: "1", Data: "university_3"}}},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	msg := mock.sent[0].(tgbotapi.MessageConfig)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("markup type = %T, want InlineKeyboardMarkup", msg.ReplyMarkup)
	}
	if *markup.InlineKeyboard[0][0].CallbackData != "university_3" {
		t.Errorf("callback data = %v", markup.InlineKeyboard[0][0].CallbackData)
	}
}

func TestSend_EditInPlace(t *testing.T) {
	ch, mock, _ := newTestChannel(t, config.TelegramConfig{Token: "t"})

	err := ch.Send(bus.Outbound{
		ChatID:        "200",
		Text:          "Выберите нужный вам ВУЗ",
		EditMessageID: 55,
		Menu: &bus.Menu{
			Inline: true,
			Rows:   [][]bus.Button{{{Label: "Вперед", Data: "page_2"}}},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	edit, ok := mock.sent[0].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("sent type = %T, want EditMessageTextConfig", mock.sent[0])
	}
	if edit.MessageID != 55 || edit.ReplyMarkup == nil {
		t.Errorf("edit = %+v", edit)
	}
}

func TestSend_ChunksLongText(t *testing.T) {
	ch, mock, _ := newTestChannel(t, config.TelegramConfig{Token: "t"})

	lines := strings.Repeat("Название: Университет имени длинного названия\n", 200)
	err := ch.Send(bus.Outbound{ChatID: "200", Text: lines, Menu: &bus.Menu{
		Rows: [][]bus.Button{{{Label: "Назад"}}},
	}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(mock.sent) < 2 {
		t.Fatalf("sent = %d messages, want chunked delivery", len(mock.sent))
	}
	for i, c := range mock.sent {
		msg := c.(tgbotapi.MessageConfig)
		if len(msg.Text) > 4000 {
			t.Errorf("chunk %d length = %d, over the telegram limit", i, len(msg.Text))
		}
		last := i == len(mock.sent)-1
		if last && msg.ReplyMarkup == nil {
			t.Error("keyboard missing from final chunk")
		}
		if !last && msg.ReplyMarkup != nil {
			t.Errorf("keyboard attached to intermediate chunk %d", i)
		}
	}
}

func TestSend_InvalidChatID(t *testing.T) {
	ch, _, _ := newTestChannel(t, config.TelegramConfig{Token: "t"})
	if err := ch.Send(bus.Outbound{ChatID: "not-a-number", Text: "x"}); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}
