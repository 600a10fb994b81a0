package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Messenger implements notify.Messenger over the Lark IM API. Messages are
// plain text; an existing message is edited in place via its message id so
// approval annotations land on the original notification instead of
// flooding the chat.
type Messenger struct {
	client *Client
	logger *zap.Logger
}

// NewMessenger creates a new Lark message sender adapter
func NewMessenger(client *Client, logger *zap.Logger) *Messenger {
	return &Messenger{client: client, logger: logger}
}

// SendMessage sends a text message to a chat and returns the message id.
func (m *Messenger) SendMessage(ctx context.Context, chatID, content string) (string, error) {
	if chatID == "" {
		return "", fmt.Errorf("chatID cannot be empty")
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(textContent(content)).
			Build()).
		Build()

	resp, err := m.client.client.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("lark message sent",
		zap.String("chat_id", chatID),
		zap.String("message_id", messageID))

	return messageID, nil
}

// EditMessage replaces the content of a previously sent message.
func (m *Messenger) EditMessage(ctx context.Context, messageID, content string) error {
	if messageID == "" {
		return fmt.Errorf("messageID cannot be empty")
	}

	req := larkim.NewUpdateMessageReqBuilder().
		MessageId(messageID).
		Body(larkim.NewUpdateMessageReqBodyBuilder().
			MsgType(larkim.MsgTypeText).
			Content(textContent(content)).
			Build()).
		Build()

	resp, err := m.client.client.Im.Message.Update(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	m.logger.Info("lark message edited", zap.String("message_id", messageID))
	return nil
}

// textContent builds the Lark text message body.
func textContent(text string) string {
	body, _ := json.Marshal(map[string]string{"text": text})
	return string(body)
}
