package neuroglancer_test

import (
	"fmt"

	"github.com/zarrlens/zarrlens/pkg/classify"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

func ExampleSourceLocator() {
	fmt.Println(neuroglancer.SourceLocator("http://x/data", 3))
	// Output: http://x/data/|zarr3:
}

func ExampleRawArrayState() {
	arr := &zarr.ArrayDescriptor{Shape: []int{64, 64}, Chunks: []int{32, 32}, Dtype: "|u1", ZarrVersion: 2}
	st, _ := neuroglancer.RawArrayState("https://example.com/labels.zarr", arr, classify.LayerAuto)
	data, _ := st.JSON()
	fmt.Println(string(data))
	// Output: {"layers":[{"type":"auto","name":"labels.zarr","source":"https://example.com/labels.zarr/|zarr2:","shaderControls":{"normalized":{"range":[0,255]}}}],"selectedLayer":{"visible":true,"layer":"labels.zarr"},"layout":"4panel-alt"}
}

func ExampleShader() {
	fmt.Println(neuroglancer.Shader("00FF00", 0, 255))
	// Output:
	// #uicontrol vec3 color color(default="#00FF00")
	// #uicontrol invlerp normalized(range=[0, 255])
	// void main() { emitRGB(color * normalized()); }
}
