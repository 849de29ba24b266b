package infrastructure

import (
	"fmt"
	"strconv"
	"sync"

	"ispagents/internal/interfaces"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramBotInstance is a single tenant's support bot.
type TelegramBotInstance struct {
	Bot       *tgbotapi.BotAPI
	UserID    int
	Schema    string
	StopChan  chan struct{}
	IsRunning bool
	mu        sync.Mutex
}

// Sender returns a ChannelSender that replies through this bot.
func (i *TelegramBotInstance) Sender() interfaces.ChannelSender {
	return &telegramSender{bot: i.Bot}
}

type telegramSender struct {
	bot *tgbotapi.BotAPI
}

func (s *telegramSender) SendMessage(to, content string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q", to)
	}
	msg := tgbotapi.NewMessage(chatID, content)
	msg.ParseMode = "Markdown"
	_, err = s.bot.Send(msg)
	return err
}

// TelegramBotManager runs one polling bot per tenant. Updates are fed
// to MessageHandler, which routes them into the agent relay pipeline.
type TelegramBotManager struct {
	bots map[int]*TelegramBotInstance
	mu   sync.RWMutex

	MessageHandler func(instance *TelegramBotInstance, update tgbotapi.Update)
}

func NewTelegramBotManager() *TelegramBotManager {
	return &TelegramBotManager{
		bots: make(map[int]*TelegramBotInstance),
	}
}

// GetBot returns existing bot for user (nil if not connected)
func (m *TelegramBotManager) GetBot(userID int) *TelegramBotInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bots[userID]
}

// ValidateToken checks if a token is valid by creating a test bot
func (m *TelegramBotManager) ValidateToken(token string) (string, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return bot.Self.UserName, nil
}

// ConnectBot creates and starts a bot for a tenant with their token.
func (m *TelegramBotManager) ConnectBot(userID int, schema, token string) (*TelegramBotInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.bots[userID]; ok && existing.IsRunning {
		return existing, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	instance := &TelegramBotInstance{
		Bot:      bot,
		UserID:   userID,
		Schema:   schema,
		StopChan: make(chan struct{}),
	}
	m.bots[userID] = instance

	go m.startPolling(instance)

	return instance, nil
}

// startPolling runs the update loop for a tenant's bot until stopped.
func (m *TelegramBotManager) startPolling(instance *TelegramBotInstance) {
	instance.mu.Lock()
	instance.IsRunning = true
	instance.mu.Unlock()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := instance.Bot.GetUpdatesChan(u)

	fmt.Printf("[TG Bot] Started polling for tenant %d (@%s)\n", instance.UserID, instance.Bot.Self.UserName)

	for {
		select {
		case <-instance.StopChan:
			fmt.Printf("[TG Bot] Stopped polling for tenant %d\n", instance.UserID)
			instance.mu.Lock()
			instance.IsRunning = false
			instance.mu.Unlock()
			return
		case update := <-updates:
			if m.MessageHandler != nil {
				go m.MessageHandler(instance, update)
			} else {
				m.defaultHandler(instance, update)
			}
		}
	}
}

// defaultHandler answers with a connectivity echo when no relay handler
// has been wired yet.
func (m *TelegramBotManager) defaultHandler(instance *TelegramBotInstance, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if update.Message.IsCommand() && update.Message.Command() == "start" {
		msg := tgbotapi.NewMessage(chatID, "Olá! 👋 Seu agente ainda está sendo configurado.")
		instance.Bot.Send(msg)
		return
	}

	reply := tgbotapi.NewMessage(chatID, "Bot conectado! Mensagem recebida: "+update.Message.Text)
	instance.Bot.Send(reply)
}

// DisconnectBot stops a tenant's bot.
func (m *TelegramBotManager) DisconnectBot(userID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if instance, ok := m.bots[userID]; ok {
		close(instance.StopChan)
		delete(m.bots, userID)
	}
}

// GetStatus returns connection status for a tenant.
func (m *TelegramBotManager) GetStatus(userID int) (connected bool, botName string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if instance, ok := m.bots[userID]; ok && instance.IsRunning {
		return true, instance.Bot.Self.UserName
	}
	return false, ""
}

// DisconnectAll stops all bots (for graceful shutdown)
func (m *TelegramBotManager) DisconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, instance := range m.bots {
		close(instance.StopChan)
	}
	m.bots = make(map[int]*TelegramBotInstance)
}
