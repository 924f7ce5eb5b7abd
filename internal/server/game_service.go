package server

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/hackjack/internal/cards"
	"github.com/lox/hackjack/internal/engine"
	"github.com/lox/hackjack/internal/entropy"
	"github.com/lox/hackjack/internal/ledger"
)

// GameService translates wire messages into engine operations. All
// game logic lives in the engine; this layer only authenticates the
// caller, unmarshals payloads, and shapes replies.
type GameService struct {
	engine  *engine.Engine
	sub     *entropy.Subscription
	gateway *entropy.Gateway
	logger  *log.Logger
}

// NewGameService creates a game service over an engine and its funding
func NewGameService(eng *engine.Engine, sub *entropy.Subscription, gateway *entropy.Gateway, logger *log.Logger) *GameService {
	return &GameService{
		engine:  eng,
		sub:     sub,
		gateway: gateway,
		logger:  logger.WithPrefix("service"),
	}
}

// Handle processes one client message and returns the reply frame
func (s *GameService) Handle(c *Connection, msg *Message) *Message {
	if msg.Type == MessageTypeAuth {
		return s.handleAuth(c, msg.Data)
	}

	player := c.Player()
	if player == "" {
		return errorMessage("authenticate first")
	}

	switch msg.Type {
	case MessageTypeDeal:
		return s.handleDeal(player, msg.Data)
	case MessageTypeHit:
		game, err := s.engine.Hit(ledger.Account(player))
		if err != nil {
			return errorMessage(err.Error())
		}
		return gameStateMessage(game)
	case MessageTypeStand:
		game, err := s.engine.Stand(ledger.Account(player))
		if err != nil {
			return errorMessage(err.Error())
		}
		return gameStateMessage(game)
	case MessageTypeCounter:
		return mustMessage(MessageTypeCounterResult, CounterResultData{Counter: s.engine.HandCounter()})
	case MessageTypeFund:
		return s.handleFund(player, msg.Data)
	case MessageTypeWithdraw:
		return s.handleWithdraw(player, msg.Data)
	case MessageTypeDestroy:
		if err := s.engine.Decommission(ledger.Account(player)); err != nil {
			return errorMessage(err.Error())
		}
		return mustMessage(MessageTypeAck, nil)
	default:
		return errorMessage(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *GameService) handleAuth(c *Connection, data json.RawMessage) *Message {
	var auth AuthData
	if err := json.Unmarshal(data, &auth); err != nil || auth.Player == "" {
		return errorMessage("auth requires a player address")
	}
	c.SetPlayer(auth.Player)
	s.logger.Info("player authenticated", "player", auth.Player)
	return mustMessage(MessageTypeWelcome, WelcomeData{Player: auth.Player})
}

func (s *GameService) handleDeal(player string, data json.RawMessage) *Message {
	var deal DealData
	if err := json.Unmarshal(data, &deal); err != nil {
		return errorMessage("deal requires a wager")
	}
	game, err := s.engine.Deal(ledger.Account(player), deal.Wager)
	if err != nil {
		return errorMessage(err.Error())
	}
	return gameStateMessage(game)
}

func (s *GameService) handleFund(player string, data json.RawMessage) *Message {
	var fund FundData
	if err := json.Unmarshal(data, &fund); err != nil {
		return errorMessage("fund requires an amount")
	}
	if err := s.sub.Fund(player, fund.Amount); err != nil {
		return errorMessage(err.Error())
	}
	return mustMessage(MessageTypeAck, nil)
}

func (s *GameService) handleWithdraw(player string, data json.RawMessage) *Message {
	var withdraw WithdrawData
	if err := json.Unmarshal(data, &withdraw); err != nil {
		return errorMessage("withdraw requires a recipient and amount")
	}
	if err := s.engine.Withdraw(ledger.Account(player), ledger.Account(withdraw.Recipient), withdraw.Amount); err != nil {
		return errorMessage(err.Error())
	}
	return mustMessage(MessageTypeAck, nil)
}

// Fulfill applies the oracle's callback: hex words in, engine resumed
func (s *GameService) Fulfill(req FulfillRequest) error {
	if req.RequestID == "" {
		return fmt.Errorf("fulfillment requires a request id")
	}
	words := make([]cards.Word, 0, len(req.Words))
	for _, h := range req.Words {
		w, err := cards.WordFromHex(h)
		if err != nil {
			return err
		}
		words = append(words, w)
	}
	return s.gateway.Fulfill(req.RequestID, words)
}

// gameStateData shapes a game snapshot for the wire. The dealer's hole
// card stays masked until the game settles.
func gameStateData(game engine.Game) GameStateData {
	data := GameStateData{
		GameID:      game.ID,
		Seq:         game.Seq,
		State:       game.State.String(),
		Wager:       game.Wager,
		PlayerValue: game.PlayerValue(),
	}
	for _, r := range game.Player {
		data.PlayerHand = append(data.PlayerHand, r.String())
	}

	settled := game.State == engine.StateSettled
	for i, r := range game.Dealer {
		if i == 1 && !settled && game.State != engine.StateDealerResolution {
			data.DealerHand = append(data.DealerHand, "??")
			continue
		}
		data.DealerHand = append(data.DealerHand, r.String())
	}
	if settled {
		data.DealerValue = game.DealerValue()
		data.Outcome = game.Outcome.String()
	}
	return data
}

func gameStateMessage(game engine.Game) *Message {
	return mustMessage(MessageTypeGameState, gameStateData(game))
}

func errorMessage(text string) *Message {
	return mustMessage(MessageTypeError, ErrorData{Message: text})
}

// mustMessage builds a frame from a payload we marshalled ourselves
func mustMessage(messageType MessageType, data interface{}) *Message {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		panic(fmt.Sprintf("server: failed to marshal %s message: %v", messageType, err))
	}
	return msg
}
