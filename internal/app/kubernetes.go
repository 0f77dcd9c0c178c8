package app

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"flinktrack/internal/config"
)

// Clients bundles the two Kubernetes clients flinktrack uses: a clientset
// for informers and a controller-runtime client for queries and event writes.
type Clients struct {
	Clientset kubernetes.Interface
	Client    client.Client
}

// NewScheme returns a scheme with the built-in Kubernetes types.
func NewScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	return scheme
}

// NewClients connects to the cluster described by k.
func NewClients(k config.KubernetesConfig) (*Clients, error) {
	restConfig, err := restConfigFor(k)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset: %w", err)
	}

	c, err := client.New(restConfig, client.Options{Scheme: NewScheme()})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	return &Clients{Clientset: clientset, Client: c}, nil
}

// restConfigFor uses controller-runtime's standard detection unless a
// kubeconfig file or context is configured explicitly.
func restConfigFor(k config.KubernetesConfig) (*rest.Config, error) {
	if k.Kubeconfig == "" && k.Context == "" {
		restConfig, err := ctrl.GetConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get Kubernetes config: %w", err)
		}
		return restConfig, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.DefaultClientConfig = &clientcmd.DefaultClientConfig
	if k.Kubeconfig != "" {
		rules.ExplicitPath = k.Kubeconfig
	}

	overrides := &clientcmd.ConfigOverrides{CurrentContext: k.Context}
	clientLoader := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)

	restConfig, err := clientLoader.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("could not get config for context (%q): %w", k.Context, err)
	}
	return restConfig, nil
}
