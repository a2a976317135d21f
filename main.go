// Command catalogsync keeps a local snapshot of a remote catalog and browses it by key.
package main

import (
	"github.com/oedokumaci/catalogsync/cmd"
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("catalogsync", err)
	}
}
