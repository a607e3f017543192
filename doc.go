// Package nlptree provides a rule-driven pattern-matching engine for a
// conversational bot.
//
// The core code is in package 'nlp': a trie-like match tree with
// wildcard/variable loop edges, a pluggable match policy and scoring
// algorithm, and a re-entrant template expander. Package 'script' hosts
// a Goja-scripted match policy/scoring algorithm, 'rulestore' loads and
// snapshots rule packs, 'adapters' fronts the engine with WebSocket and
// MQTT transports, and 'tools' renders rule-pack documentation. Some
// command-line utilities are in 'cmd'.
package nlptree
