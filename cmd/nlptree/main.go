// Package main is nlptree, a command-line utility for loading a rule
// pack and querying it, grounded on cmd/patmatch's minimal flag-based
// style.
//
//	nlptree -rules rules.yaml -q "hello there"
//	nlptree -rules rules.yaml            # interactive REPL on stdin
//	nlptree -rules rules.yaml -ws :8080  # serve over WebSocket
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"

	mqttlib "github.com/eclipse/paho.mqtt.golang"

	"github.com/lvkbot/nlptree/adapters/mqtt"
	"github.com/lvkbot/nlptree/adapters/ws"
	"github.com/lvkbot/nlptree/nlp"
	"github.com/lvkbot/nlptree/rulestore"
	"github.com/lvkbot/nlptree/script"
)

func main() {
	var (
		rulesFile = flag.String("rules", "", "path to a YAML rule pack")
		query     = flag.String("q", "", "run a single query and print the response, then exit")

		scriptDir = flag.String("script", "", "directory with policy.js, update.js, and score.js to replace the default match policy and scoring algorithm")

		snapshotFile = flag.String("snapshot", "", "BoltDB file to cache the compiled rule pack in")

		wsAddr   = flag.String("ws", "", "address to serve the rule pack over WebSocket, e.g. :8080")
		mqttAddr = flag.String("mqtt", "", "MQTT broker URL to serve the rule pack over, e.g. tcp://localhost:1883")

		debug = flag.Bool("v", false, "log debug output")
	)

	flag.Parse()

	if *rulesFile == "" {
		log.Fatal("nlptree: -rules is required")
	}

	pack, err := loadPack(*rulesFile, *snapshotFile)
	if err != nil {
		log.Fatalf("nlptree: %s", err)
	}

	newTree := func() *nlp.Tree {
		tree := nlp.NewTree()
		tree.Debug = *debug
		if err := applyScript(tree, *scriptDir); err != nil {
			log.Fatalf("nlptree: %s", err)
		}
		rules, err := rulestore.Compile(pack)
		if err != nil {
			log.Fatalf("nlptree: %s", err)
		}
		for _, r := range rules {
			tree.Add(r)
		}
		return tree
	}

	switch {
	case *wsAddr != "":
		serveWS(*wsAddr, newTree, *debug)
	case *mqttAddr != "":
		serveMQTT(*mqttAddr, newTree, *debug)
	case *query != "":
		runQuery(newTree(), *query)
	default:
		repl(newTree())
	}
}

// loadPack loads the rule pack from snapshotFile if it has a cached
// copy stored under rulesFile's absolute path, otherwise parses
// rulesFile and, if snapshotFile is set, writes the parsed pack back for
// next time. A cached copy is served as is: it is not compared against
// rulesFile, so later edits to rulesFile are not picked up.
func loadPack(rulesFile, snapshotFile string) (rulestore.RulePack, error) {
	if snapshotFile == "" {
		return rulestore.LoadYAML(rulesFile)
	}

	snap := rulestore.NewSnapshot(snapshotFile)
	if err := snap.Open(); err != nil {
		return rulestore.RulePack{}, err
	}
	defer snap.Close()

	key, err := filepath.Abs(rulesFile)
	if err != nil {
		return rulestore.RulePack{}, err
	}

	if pack, ok, err := snap.Read(key); err != nil {
		return rulestore.RulePack{}, err
	} else if ok {
		return pack, nil
	}

	pack, err := rulestore.LoadYAML(rulesFile)
	if err != nil {
		return rulestore.RulePack{}, err
	}
	if err := snap.Write(key, pack); err != nil {
		return rulestore.RulePack{}, err
	}
	return pack, nil
}

// applyScript wires a ScriptedPolicy and ScriptedScoringAlgorithm into
// tree from policy.js/update.js/score.js in dir, if dir is non-empty.
func applyScript(tree *nlp.Tree, dir string) error {
	if dir == "" {
		return nil
	}

	policySrc, err := ioutil.ReadFile(filepath.Join(dir, "policy.js"))
	if err != nil {
		return err
	}
	policy, err := script.NewScriptedPolicy(string(policySrc))
	if err != nil {
		return err
	}
	tree.Policy = policy

	updateSrc, err := ioutil.ReadFile(filepath.Join(dir, "update.js"))
	if err != nil {
		return err
	}
	scoreSrc, err := ioutil.ReadFile(filepath.Join(dir, "score.js"))
	if err != nil {
		return err
	}
	scorer, err := script.NewScriptedScoringAlgorithm(string(updateSrc), string(scoreSrc))
	if err != nil {
		return err
	}
	tree.Scorer = scorer
	tree.NewScorer = func() nlp.ScoringAlgorithm {
		s, _ := script.NewScriptedScoringAlgorithm(string(updateSrc), string(scoreSrc))
		return s
	}
	return nil
}

func runQuery(tree *nlp.Tree, query string) {
	resp, _, ok := tree.GetResponse(query)
	if !ok {
		fmt.Println()
		return
	}
	fmt.Println(resp)
}

func repl(tree *nlp.Tree) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		runQuery(tree, scanner.Text())
	}
}

func serveWS(addr string, newTree func() *nlp.Tree, debug bool) {
	svc := ws.NewService(newTree)
	svc.Debug = debug
	http.HandleFunc("/ws", svc.Handler)
	log.Printf("nlptree: serving WebSocket on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("nlptree: %s", err)
	}
}

func serveMQTT(broker string, newTree func() *nlp.Tree, debug bool) {
	svc := mqtt.NewService("nlptree/request", "nlptree/reply/", newTree)
	svc.Debug = debug

	opts := mqttlib.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("nlptree")

	client := mqttlib.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("nlptree: %s", token.Error())
	}
	defer client.Disconnect(250)

	if err := svc.Subscribe(client); err != nil {
		log.Fatalf("nlptree: %s", err)
	}

	log.Printf("nlptree: serving MQTT on %s, subscribed to %s", broker, svc.RequestTopic)
	select {}
}
