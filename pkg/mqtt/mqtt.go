// Package mqtt bridges the bot to an MQTT broker. Engine events are published
// as JSON and other services can send request/response style commands.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

const (
	topicRoot      = "xlzr"
	requestPrefix  = topicRoot + "/request/"
	responsePrefix = topicRoot + "/response/"
	eventPrefix    = topicRoot + "/events/"
)

// Event topics
const (
	TopicLevelUp    = "levelup"
	TopicWarning    = "warning"
	TopicVerify     = "verification"
	TopicSweep      = "sweep"
	TopicEscalation = "escalation"
)

// Request is a message sent to a request topic
type Request struct {
	CorrelationID string         `json:"correlationId"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// Response answers a Request on the matching response topic
type Response struct {
	CorrelationID string `json:"correlationId"`
	Data          any    `json:"data"`
	Error         string `json:"error,omitempty"`
}

// Event wraps everything published under xlzr/events
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// RequestHandler handles one request. The payload carries "_topic" with the
// request name.
type RequestHandler func(payload map[string]any) (any, error)

// Communicator handles MQTT communication
type Communicator struct {
	client   mqtt.Client
	clientID string

	mu       sync.RWMutex
	handlers map[string]RequestHandler
}

var (
	communicator *Communicator
	once         sync.Once
)

// Init initializes the global communicator
func Init(host, port, username, password, clientID string) *Communicator {
	once.Do(func() {
		communicator = NewCommunicator(host, port, username, password, clientID)
	})
	return communicator
}

// Get returns the global communicator, nil when MQTT is not configured
func Get() *Communicator {
	return communicator
}

func newCommunicator(clientID string) *Communicator {
	return &Communicator{
		clientID: clientID,
		handlers: make(map[string]RequestHandler),
	}
}

// NewCommunicator connects to the broker. Connection failures are logged and
// retried in the background.
func NewCommunicator(host, port, username, password, clientID string) *Communicator {
	mc := newCommunicator(clientID)

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(fmt.Sprintf("%s_%s", clientID, uuid.NewString())).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Connected to MQTT broker as %s", clientID), "MQTT")
			mc.resubscribe()
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("MQTT connection lost: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	token := mc.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		logger.Error(fmt.Sprintf("MQTT connection error: %v", token.Error()), "MQTT")
	}

	return mc
}

// Destroy closes the connection
func (mc *Communicator) Destroy() {
	if mc.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("MQTT connection closed.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *Communicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Publish marshals payload to JSON and sends it to topic
func (mc *Communicator) Publish(topic string, payload any) error {
	if !mc.IsConnected() {
		return fmt.Errorf("mqtt: not connected")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, data)
	token.Wait()
	return token.Error()
}

// PublishEvent publishes data under xlzr/events/<kind>. Failures are logged
// and otherwise ignored.
func (mc *Communicator) PublishEvent(kind string, data any) {
	ev := Event{ID: uuid.NewString(), Type: kind, Timestamp: time.Now().UTC(), Data: data}
	if err := mc.Publish(eventPrefix+kind, ev); err != nil {
		logger.Debug(fmt.Sprintf("Event %s not published: %v", kind, err), "MQTT")
	}
}

// On registers a handler for xlzr/request/<requestTopic>. requestTopic may use
// MQTT wildcards.
func (mc *Communicator) On(requestTopic string, handler RequestHandler) {
	mc.mu.Lock()
	mc.handlers[requestTopic] = handler
	mc.mu.Unlock()

	if mc.IsConnected() {
		mc.subscribeRequest(requestTopic)
	}
}

func (mc *Communicator) resubscribe() {
	mc.mu.RLock()
	topics := make([]string, 0, len(mc.handlers))
	for t := range mc.handlers {
		topics = append(topics, t)
	}
	mc.mu.RUnlock()

	for _, t := range topics {
		mc.subscribeRequest(t)
	}
}

func (mc *Communicator) subscribeRequest(requestTopic string) {
	topic := requestPrefix + requestTopic
	token := mc.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		respTopic, resp, ok := mc.handleRequest(msg.Topic(), msg.Payload())
		if !ok {
			return
		}
		if err := mc.Publish(respTopic, resp); err != nil {
			logger.Error(fmt.Sprintf("Failed to answer %s: %v", respTopic, err), "MQTT")
		}
	})
	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error subscribing to topic %s: %v", topic, token.Error()), "MQTT")
	}
}

// handleRequest runs the matching handler and builds the response
func (mc *Communicator) handleRequest(topic string, raw []byte) (string, Response, bool) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
		return "", Response{}, false
	}

	actual := strings.TrimPrefix(topic, requestPrefix)
	handler := mc.handlerFor(actual)
	if handler == nil {
		return "", Response{}, false
	}

	if req.Payload == nil {
		req.Payload = make(map[string]any)
	}
	req.Payload["_topic"] = actual

	resp := Response{CorrelationID: req.CorrelationID}
	data, err := handler(req.Payload)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Data = data
	}
	return responsePrefix + actual + "/" + req.CorrelationID, resp, true
}

func (mc *Communicator) handlerFor(topic string) RequestHandler {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if h, ok := mc.handlers[topic]; ok {
		return h
	}
	for pattern, h := range mc.handlers {
		if topicMatch(pattern, topic) {
			return h
		}
	}
	return nil
}

// topicMatch checks if a received topic matches a pattern.
// '+' matches exactly one level, '#' matches the remaining levels.
func topicMatch(pattern, topic string) bool {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	for i, p := range patternParts {
		if p == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if p != "+" && p != topicParts[i] {
			return false
		}
	}
	return len(patternParts) == len(topicParts)
}
