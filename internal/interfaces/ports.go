package interfaces

// ChannelSender delivers an outbound reply on a messaging channel
// (Telegram, WhatsApp, web).
type ChannelSender interface {
	SendMessage(to, content string) error
}
