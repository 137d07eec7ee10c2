package bot

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Register wires the quiz into the bot's command and callback handlers.
func Register(b *tele.Bot, q *Quiz) {
	b.Handle("/start", func(c tele.Context) error {
		return send(c, q.Start())
	})
	b.Handle("/question", func(c tele.Context) error {
		return send(c, q.Random(context.Background()))
	})

	begin := func(c tele.Context) error {
		return send(c, q.Begin(context.Background(), c.Chat().ID))
	}
	b.Handle(&tele.InlineButton{Unique: BtnStartQuiz}, begin)
	b.Handle(&tele.InlineButton{Unique: BtnRestart}, begin)
	b.Handle("/quiz", begin)

	reveal := func(c tele.Context) error {
		return send(c, q.Reveal(context.Background(), c.Chat().ID, callbackIndex(c)))
	}
	b.Handle(&tele.InlineButton{Unique: BtnKnow}, reveal)
	b.Handle(&tele.InlineButton{Unique: BtnDontKnow}, reveal)

	b.Handle(&tele.InlineButton{Unique: BtnAnswered}, func(c tele.Context) error {
		return send(c, q.Mark(context.Background(), c.Chat().ID, callbackIndex(c), true))
	})
	b.Handle(&tele.InlineButton{Unique: BtnReview}, func(c tele.Context) error {
		return send(c, q.Mark(context.Background(), c.Chat().ID, callbackIndex(c), false))
	})
	b.Handle(&tele.InlineButton{Unique: BtnNext}, func(c tele.Context) error {
		return send(c, q.Show(context.Background(), c.Chat().ID))
	})
}

// callbackIndex reads the quiz position a button was sent with. Buttons
// without one yield -1, which never matches a position.
func callbackIndex(c tele.Context) int {
	cb := c.Callback()
	if cb == nil {
		return -1
	}
	n, err := strconv.Atoi(cb.Data)
	if err != nil {
		return -1
	}
	return n
}

// send acknowledges a pressed button and posts the reply as a new message.
func send(c tele.Context, r Reply) error {
	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			return err
		}
	}
	if len(r.Buttons) == 0 {
		return c.Send(r.Text, tele.ModeHTML)
	}
	return c.Send(r.Text, keyboard(r.Buttons), tele.ModeHTML)
}

func keyboard(buttons []Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	btns := make([]tele.Btn, len(buttons))
	for i, b := range buttons {
		btns[i] = markup.Data(b.Text, b.Unique, b.Data)
	}
	markup.Inline(markup.Row(btns...))
	return markup
}
