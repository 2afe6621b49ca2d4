package main

import "github.com/spf13/cobra"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vector index state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the vector index",
	Long:  `Creates the HNSW index. Creating an index that already exists is not an error.`,
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Drop the vector index",
	Long:  `Drops the index definition. Stored patent hashes are kept; a later create re-indexes them.`,
	Args:  cobra.NoArgs,
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	st, err := e.vec.Status(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("exists:  %t\n", st.Exists)
	cmd.Printf("ready:   %t\n", st.Ready)
	cmd.Printf("vectors: %d\n", st.VectorCount)
	return nil
}

func runCreate(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.vec.CreateIndex(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("index created")
	return nil
}

func runDelete(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.vec.DeleteIndex(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("index deleted")
	return nil
}
