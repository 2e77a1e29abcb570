package domain

// Channel identifies a communication channel for codes and notices.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// EmailMessage is a rendered email ready for an email sender.
type EmailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// SMSMessage is a rendered text message ready for a phone sender.
type SMSMessage struct {
	To   string `json:"to"`
	Text string `json:"text"`
}
