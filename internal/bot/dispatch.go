package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// Sender is the subset of discordgo.Session used to deliver actions
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Dispatcher delivers engine actions. Delivery failures are logged only.
type Dispatcher struct {
	sender Sender
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender, now: time.Now}
}

// Dispatch delivers actions in order
func (d *Dispatcher) Dispatch(actions []engine.Action) {
	for _, a := range actions {
		switch a.Kind {
		case engine.ActionAnnounce:
			if _, err := d.sender.ChannelMessageSendEmbed(a.ChannelID, d.Embed(a)); err != nil {
				logger.Warn(fmt.Sprintf("Could not announce in %s: %v", a.ChannelID, classify(err)), "Dispatch")
			}
		case engine.ActionDeleteMessage:
			if err := d.sender.ChannelMessageDelete(a.ChannelID, a.MessageID); err != nil {
				logger.Debug(fmt.Sprintf("Could not delete message %s: %v", a.MessageID, classify(err)), "Dispatch")
			}
		default:
			logger.Warn(fmt.Sprintf("Unknown action %s", a.Kind), "Dispatch")
		}
	}
}

// Embed renders an announcement action
func (d *Dispatcher) Embed(a engine.Action) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Description,
		Color:       a.Color,
		Timestamp:   d.now().Format(time.RFC3339),
	}
	if a.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: a.Thumbnail}
	}
	if a.Image != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: a.Image}
	}
	if a.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: a.Footer}
	}
	return e
}
