// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// cc-tagview is a terminal viewer for the tag catalog. It polls the list
// endpoint at display rate and the health endpoint once a second and
// redraws the screen on every refresh.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/ClusterCockpit/cc-tagstore/internal/api"
)

const (
	serverURL    = "http://127.0.0.1:8080"
	pollRate     = 150 * time.Millisecond
	healthRate   = 1 * time.Second
	clearScreen  = "\033[H\033[2J"
	requestLimit = 2 * time.Second
)

var client = &http.Client{Timeout: requestLimit}

func fetchTags() ([]api.TagResponse, error) {
	resp, err := client.Get(serverURL + "/api/v1/tags")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var list api.ListTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}
	return list.Tags, nil
}

func fetchHealth() string {
	resp, err := client.Get(serverURL + "/api/v1/health")
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()

	var h api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return "unreachable"
	}
	return h.Status
}

func render(tags []api.TagResponse, health string) {
	fmt.Print(clearScreen)
	fmt.Printf("cc-tagview  -  %s  -  server %s\n\n", serverURL, health)
	fmt.Printf("%-28s %14s %-6s %-14s %s\n", "NAME", "VALUE", "UNIT", "TIME", "TYPE")

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	for _, tag := range tags {
		ts := "--:--:--"
		if tag.Value.Timestamp != nil {
			ts = tag.Value.Timestamp.Local().Format("15:04:05.000")
		}
		unit := tag.Meta.Unit.Suffix()
		fmt.Printf("%-28s %14s %-6s %-14s %s\n",
			tag.Name, tag.Value.Value.String(), unit, ts, tag.Meta.DataType)
	}
}

func main() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	tagTicker := time.NewTicker(pollRate)
	defer tagTicker.Stop()
	healthTicker := time.NewTicker(healthRate)
	defer healthTicker.Stop()

	health := fetchHealth()

	for {
		select {
		case <-sigs:
			fmt.Println()
			return
		case <-healthTicker.C:
			health = fetchHealth()
		case <-tagTicker.C:
			tags, err := fetchTags()
			if err != nil {
				fmt.Print(clearScreen)
				fmt.Printf("cc-tagview  -  %s\n\nerror: %s\n", serverURL, err.Error())
				continue
			}
			render(tags, health)
		}
	}
}
