// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/canonical/task-manager/internal/authorization"
	"github.com/canonical/task-manager/internal/logging"
	"github.com/canonical/task-manager/internal/monitoring"
	"github.com/canonical/task-manager/internal/openfga"
	"github.com/canonical/task-manager/internal/tracing"
)

const (
	StoreName  = "task-manager"
	ModelV0    = "v0"
	storeIDKey = "OPENFGA_STORE_ID"
	modelIDKey = "OPENFGA_AUTHORIZATION_MODEL_ID"
)

// createFgaModelCmd writes the organization role model used by the openfga authorization backend
var createFgaModelCmd = &cobra.Command{
	Use:   "create-fga-model",
	Short: "Creates the openfga model for organization roles",
	Long:  `Creates the openfga model for organization roles, optionally publishing the store and model IDs to a configmap`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiURL, _ := cmd.Flags().GetString("fga-api-url")
		apiToken, _ := cmd.Flags().GetString("fga-api-token")
		storeID, _ := cmd.Flags().GetString("fga-store-id")
		format, _ := cmd.Flags().GetString("format")
		verbose, _ := cmd.Flags().GetBool("verbose")
		configMapResource, _ := cmd.Flags().GetString("store-k8s-configmap-resource")
		kubeconfigPath, _ := cmd.Flags().GetString("kubeconfig")

		modelID, finalStoreID, err := createModel(cmd.Context(), apiURL, apiToken, storeID, verbose)
		if err != nil {
			return err
		}

		if configMapResource != "" {
			if err := updateConfigMap(cmd.Context(), kubeconfigPath, configMapResource, finalStoreID, modelID); err != nil {
				return fmt.Errorf("failed to update configmap: %w", err)
			}
			cmd.PrintErrf("ConfigMap %s updated\n", configMapResource)
		}

		if format == formatJSON {
			output := struct {
				StoreID string `json:"store_id"`
				ModelID string `json:"model_id"`
			}{
				StoreID: finalStoreID,
				ModelID: modelID,
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(output)
		}

		cmd.Printf("Created model: %s\n", modelID)
		if storeID == "" {
			cmd.Printf("Created store: %s\n", finalStoreID)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(createFgaModelCmd)

	createFgaModelCmd.Flags().String("fga-api-url", "", "The openfga API URL")
	createFgaModelCmd.Flags().String("fga-api-token", "", "The openfga API token")
	createFgaModelCmd.Flags().String("fga-store-id", "", "The openfga store to create the model in, if empty one will be created")
	createFgaModelCmd.Flags().String("format", formatText, "Output format (text or json)")
	createFgaModelCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")
	createFgaModelCmd.Flags().String("store-k8s-configmap-resource", "", "The configmap resource to store the FGA Store ID and Model ID, format: namespace/name")
	createFgaModelCmd.Flags().String("kubeconfig", "", "Path to the kubeconfig file (optional, defaults to in-cluster config)")
	_ = createFgaModelCmd.MarkFlagRequired("fga-api-url")
	_ = createFgaModelCmd.MarkFlagRequired("fga-api-token")
}

func createModel(ctx context.Context, apiURL, apiToken, storeID string, verbose bool) (string, string, error) {
	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("", logger)

	u, err := url.Parse(apiURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse url: %w", err)
	}

	fgaClient, err := openfga.NewClient(
		openfga.NewConfig(u.Scheme, u.Host, storeID, apiToken, "", verbose, tracer, monitor, logger),
	)
	if err != nil {
		return "", "", err
	}

	if storeID == "" {
		if storeID, err = fgaClient.CreateStore(ctx, StoreName); err != nil {
			return "", "", fmt.Errorf("failed to create store: %w", err)
		}

		if err := fgaClient.SetStoreID(ctx, storeID); err != nil {
			return "", "", err
		}
	}

	model, err := authorization.NewAuthorizationModelProvider(ModelV0).GetModel()
	if err != nil {
		return "", "", err
	}

	modelID, err := fgaClient.WriteModel(ctx, model)
	if err != nil {
		return "", "", fmt.Errorf("failed to write model: %w", err)
	}

	return modelID, storeID, nil
}

func kubeConfig(kubeconfigPath string) (*rest.Config, error) {
	if kubeconfigPath != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	}

	if config, err := rest.InClusterConfig(); err == nil {
		return config, nil
	}

	// outside a cluster fall back to the default loading rules
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		clientcmd.NewDefaultClientConfigLoadingRules(),
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
}

// updateConfigMap publishes the IDs under the environment variable names the serve command reads.
func updateConfigMap(ctx context.Context, kubeconfigPath, configMapResource, storeID, modelID string) error {
	namespace, name, ok := strings.Cut(configMapResource, "/")
	if !ok || namespace == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid configmap resource format: %s, expected namespace/name", configMapResource)
	}

	config, err := kubeConfig(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	configMaps := clientset.CoreV1().ConfigMaps(namespace)

	cm, err := configMaps.Get(ctx, name, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
			Data:       map[string]string{storeIDKey: storeID, modelIDKey: modelID},
		}

		if _, err := configMaps.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create configmap %s: %w", configMapResource, err)
		}

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get configmap %s: %w", configMapResource, err)
	}

	if cm.Data == nil {
		cm.Data = make(map[string]string)
	}

	cm.Data[storeIDKey] = storeID
	cm.Data[modelIDKey] = modelID

	if _, err := configMaps.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update configmap %s: %w", configMapResource, err)
	}

	return nil
}
