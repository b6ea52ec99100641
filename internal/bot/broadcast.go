package bot

import (
	"context"
	"log"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// messageSender is the slice of the Telegram API the broadcast loop needs,
// satisfied by *telego.Bot.
type messageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// broadcastMessage sends text to every user id sequentially, pausing between
// sends as a courtesy to the Telegram rate limits. A failed send (user
// blocked the bot, deleted account) is counted and never aborts the batch.
func broadcastMessage(ctx context.Context, sender messageSender, userIDs []int64, text string, delay time.Duration) (success, fail int) {
	for _, uid := range userIDs {
		_, err := sender.SendMessage(ctx, tu.Message(tu.ID(uid), text).WithParseMode(telego.ModeHTML))
		if err != nil {
			log.Printf("Failed to send broadcast to user %d: %v", uid, err)
			fail++
			continue
		}
		success++
		time.Sleep(delay)
	}
	return success, fail
}
