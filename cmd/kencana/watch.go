package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/task"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print crop and reminder changes as they happen until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var mu sync.Mutex
			printf := func(format string, v ...any) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(a.stdout, format, v...)
			}

			cancelCrops := a.farm.Crops.Subscribe(func(crops []crop.Crop) {
				printf("%s crops: %d\n", a.farm.Now().Format("15:04:05"), len(crops))
			})
			defer cancelCrops()
			cancelTasks := a.farm.Tasks.Subscribe(func(tasks []task.Task) {
				active := 0
				for _, t := range tasks {
					if !t.Completed {
						active++
					}
				}
				printf("%s tasks: %d (%d active)\n", a.farm.Now().Format("15:04:05"), len(tasks), active)
			})
			defer cancelTasks()

			printf("Watching for changes (Ctrl+C to stop)\n")
			<-cmd.Context().Done()
			return nil
		},
	}
}
