package nn

import (
	"github.com/born-ml/miniflow/internal/graph"
)

// MSELoss adds a Mean Squared Error cost node comparing targets with
// predictions.
//
// Loss = mean((targets - predictions)²)
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values. Targets of shape [m] and predictions of shape [m 1] are
// compared element by element.
//
// Example:
//
//	out, _ := model.Forward(g, x)
//	cost, err := nn.MSELoss(g, y, out)
func MSELoss(g *graph.Graph, targets, predictions graph.NodeID) (graph.NodeID, error) {
	cost, err := g.Construct(graph.KindMSE, targets, predictions)
	if err != nil {
		return 0, err
	}
	if err := g.SetName(cost, "cost"); err != nil {
		return 0, err
	}
	return cost, nil
}
