package notifier

import "fmt"

const (
	DefaultProduct      = "Cursor"
	DefaultDownloadPage = "https://www.cursor.com/downloads"
)

// Message is channel-neutral; each sender renders it in its own format.
type Message struct {
	Title     string
	Text      string
	ActionURL string
}

type Templates struct {
	Product      string
	DownloadPage string
}

func (t Templates) withDefaults() Templates {
	if t.Product == "" {
		t.Product = DefaultProduct
	}
	if t.DownloadPage == "" {
		t.DownloadPage = DefaultDownloadPage
	}
	return t
}

func (t Templates) NewVersion(v string) Message {
	t = t.withDefaults()
	return Message{
		Title: fmt.Sprintf("*%s Update Alert* 🚀", t.Product),
		Text: fmt.Sprintf("🚀 New %s Update! Version %s is now available. Download it here: %s",
			t.Product, v, t.DownloadPage),
		ActionURL: t.DownloadPage,
	}
}

func (t Templates) Test() Message {
	t = t.withDefaults()
	return Message{
		Title:     fmt.Sprintf("*%s Update Alert* 🚀", t.Product),
		Text:      fmt.Sprintf("👋 Hello from %s Changelog! This is a test notification to verify your setup works correctly.", t.Product),
		ActionURL: t.DownloadPage,
	}
}
