// main is the entry point of the defectset CLI.
package main

import (
	"github.com/huangsam/defectset/cmd"
	"github.com/huangsam/defectset/internal/contract"
	"github.com/huangsam/defectset/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()

	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Cannot stop profiling", stopErr)
	}
	iocache.CloseCaching()

	if err != nil {
		contract.LogFatal("defectset failed", err)
	}
}
