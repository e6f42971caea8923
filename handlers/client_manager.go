package handlers

import (
	"log"
	"sync"

	"tilefield/server/messages"
)

// ClientManager manages connected clients
type ClientManager struct {
	clients map[string]*ClientHandler // Map PlayerID to ClientHandler
	mutex   sync.RWMutex
}

// NewClientManager creates a new client manager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]*ClientHandler),
	}
}

// AddClient registers handler for playerID and returns the handler it
// replaced, if any
func (cm *ClientManager) AddClient(playerID string, handler *ClientHandler) *ClientHandler {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	previous := cm.clients[playerID]
	cm.clients[playerID] = handler
	if previous == handler {
		return nil
	}
	return previous
}

// RemoveClient unregisters playerID if handler is still the one registered
// for it. It reports whether anything was removed.
func (cm *ClientManager) RemoveClient(playerID string, handler *ClientHandler) bool {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.clients[playerID] != handler {
		return false
	}
	delete(cm.clients, playerID)
	return true
}

// Count returns the number of logged-in clients
func (cm *ClientManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// ExecuteOnAllClients executes a function for each connected client
func (cm *ClientManager) ExecuteOnAllClients(action func(*ClientHandler)) {
	cm.mutex.RLock()
	clients := make([]*ClientHandler, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	cm.mutex.RUnlock()

	for _, client := range clients {
		action(client)
	}
}

// CloseAll tells every client the server is going away and closes them
func (cm *ClientManager) CloseAll(reason string) {
	cm.ExecuteOnAllClients(func(client *ClientHandler) {
		if err := client.conn.SendMessage(messages.NewError(messages.CodeServerShutdown, reason)); err != nil {
			log.Printf("Error notifying client %s: %v", client.conn.RemoteAddr(), err)
		}
		client.conn.Close()
	})
}
