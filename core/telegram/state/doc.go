// Package state provides a typed in-memory session store for Telegram bot
// conversations. The store is domain-agnostic: each bot supplies its own
// session type and owns creation and removal explicitly.
package state
