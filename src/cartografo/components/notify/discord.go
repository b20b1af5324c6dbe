// Package notify pushes discovery events to Discord. Every method is best
// effort: a failed notification is logged and dropped, never bubbled into
// the run.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/runner"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
)

const (
	colorFound   = 0x74acdf // celeste
	colorSummary = 0xf6b40e // sol de mayo
)

type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord opens a bot session. Caller owns Close.
func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Close() {
	if err := d.session.Close(); err != nil {
		log.Printf("Error closing discord session: %v", err)
	}
}

// StreamerFound announces one newly confirmed channel.
func (d *Discord) StreamerFound(_ context.Context, s types.Streamer) {
	embed := &discordgo.MessageEmbed{
		Title: s.Name,
		URL:   s.URL,
		Color: colorFound,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Provincia", Value: valueOr(s.Province, "incierta"), Inline: true},
			{Name: "Suscriptores", Value: fmt.Sprintf("%d", s.Subscribers), Inline: true},
			{Name: "Certeza", Value: fmt.Sprintf("%d%% (%s)", s.Certainty, s.Method), Inline: true},
		},
	}
	if s.Category != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Categoría", Value: s.Category, Inline: true})
	}
	if s.Indicators != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: s.Indicators}
	}
	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		log.Printf("Error sending streamer embed for %s: %v", s.ChannelID, err)
	}
}

// RunSummary posts the end-of-run report.
func (d *Discord) RunSummary(_ context.Context, rep *runner.Report) {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Corrida %s: %s", rep.RunID, rep.State),
		Color: colorSummary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Términos", Value: fmt.Sprintf("%d/%d", rep.TermsSearched, rep.TermsPlanned), Inline: true},
			{Name: "Páginas", Value: fmt.Sprintf("%d", rep.PagesFetched), Inline: true},
			{Name: "Canales analizados", Value: fmt.Sprintf("%d", rep.ChannelsAnalyzed), Inline: true},
			{Name: "Streamers nuevos", Value: fmt.Sprintf("%d", rep.StreamersFound), Inline: true},
			{Name: "Unidades de API", Value: fmt.Sprintf("%d", rep.APIUnits), Inline: true},
			{Name: "Duración", Value: rep.Finished.Sub(rep.Started).Round(time.Second).String(), Inline: true},
		},
	}
	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		log.Printf("Error sending run summary: %v", err)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
